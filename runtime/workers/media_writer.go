package workers

import (
	"context"
	"log/slog"

	"roomchat/contract"
)

// MediaWriterWorker drains the relay upload queue so that writing a file never
// runs on the goroutine reading the uploader's connection.
type MediaWriterWorker struct {
	log   *slog.Logger
	relay contract.IMediaRelay
	jobs  <-chan contract.MediaJob
}

func NewMediaWriterWorker(log *slog.Logger, relay contract.IMediaRelay, jobs <-chan contract.MediaJob) *MediaWriterWorker {
	return &MediaWriterWorker{log: log, relay: relay, jobs: jobs}
}

func (w *MediaWriterWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping media writer")
			return nil
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Upload queue is closed")
				return nil
			}
			blob, err := w.relay.Store(ctx, job.Room, job.Sender, job.Filename, job.Data)
			if job.Done != nil {
				job.Done(blob, err)
			}
		}
	}
}

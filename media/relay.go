// Package media stores uploaded images and serves them back by retrieval id.
package media

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/domain/mimetypes"
	"roomchat/errors"
	"roomchat/observability"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Relay validates payloads, writes them to blob storage and records their metadata.
// Store is synchronous; Submit queues a job for the MediaWriter workers.
type Relay struct {
	log        *slog.Logger
	storage    contract.BlobStorage
	repository contract.IMediaRepository
	metrics    *observability.Metrics
	maxPayload int64
	allowed    []mimetypes.MIME
	jobs       chan contract.MediaJob
	now        func() time.Time
}

func NewRelay(
	log *slog.Logger,
	storage contract.BlobStorage,
	repository contract.IMediaRepository,
	metrics *observability.Metrics,
	maxPayload int64,
	allowed []mimetypes.MIME,
	queueSize int,
) *Relay {
	if len(allowed) == 0 {
		allowed = mimetypes.DefaultImages
	}
	return &Relay{
		log:        log,
		storage:    storage,
		repository: repository,
		metrics:    metrics,
		maxPayload: maxPayload,
		allowed:    allowed,
		jobs:       make(chan contract.MediaJob, queueSize),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Store writes data under a fresh "<uuid>-<sanitized name>" id.
func (r *Relay) Store(_ context.Context, room, sender, filename string, data []byte) (domain.MediaBlob, error) {
	name, err := r.validate(filename, data)
	if err != nil {
		return domain.MediaBlob{}, err
	}

	detected := mimetype.Detect(data).String()
	contentType, ok := mimetypes.Allowed(detected, r.allowed)
	if !ok {
		return domain.MediaBlob{}, fmt.Errorf("%w: content type %s is not accepted", errors.ErrInvalidPayload, detected)
	}

	sum := blake2b.Sum256(data)
	blob := domain.MediaBlob{
		ID:          uuid.NewString() + "-" + name,
		Room:        room,
		Sender:      sender,
		Filename:    name,
		ContentType: string(contentType),
		Size:        int64(len(data)),
		Checksum:    hex.EncodeToString(sum[:]),
		StoredAt:    r.now(),
	}

	if err = r.storage.Write(blob.ID, data); err != nil {
		r.log.Error("Failed to write media", "id", blob.ID, "error", err)
		return domain.MediaBlob{}, wrapStorage(err)
	}
	if err = r.repository.Save(blob); err != nil {
		r.log.Error("Failed to record media", "id", blob.ID, "error", err)
		if rmErr := r.storage.Remove(blob.ID); rmErr != nil {
			r.log.Warn("Orphan media left on disk", "id", blob.ID, "error", rmErr)
		}
		return domain.MediaBlob{}, wrapStorage(err)
	}
	r.metrics.MediaWritten(blob.Size)
	r.log.Debug("Media stored", "id", blob.ID, "room", room, "size", blob.Size, "content_type", blob.ContentType)
	return blob, nil
}

// Submit validates the cheap invariants and queues the job.
// A full queue is reported as ErrStorageUnavailable rather than blocking the caller.
func (r *Relay) Submit(job contract.MediaJob) error {
	if _, err := r.validate(job.Filename, job.Data); err != nil {
		return err
	}
	select {
	case r.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: upload queue full", errors.ErrStorageUnavailable)
	}
}

// Jobs is drained by the MediaWriter workers.
func (r *Relay) Jobs() <-chan contract.MediaJob {
	return r.jobs
}

func (r *Relay) Fetch(_ context.Context, id string) (domain.MediaBlob, io.ReadCloser, error) {
	blob, err := r.repository.Get(id)
	if err != nil {
		return domain.MediaBlob{}, nil, err
	}
	rc, err := r.storage.Open(blob.ID)
	if err != nil {
		return domain.MediaBlob{}, nil, err
	}
	return blob, rc, nil
}

func (r *Relay) validate(filename string, data []byte) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidFilename, filename)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", errors.ErrInvalidPayload)
	}
	if r.maxPayload > 0 && int64(len(data)) > r.maxPayload {
		return "", fmt.Errorf("%w: %d bytes exceeds the %d bytes ceiling", errors.ErrInvalidPayload, len(data), r.maxPayload)
	}
	return name, nil
}

func wrapStorage(err error) error {
	if errors.Is(err, errors.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
}

// Package search maintains a full-text index of chat history with bluge.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"roomchat/domain"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
)

const (
	fieldRoom      = "room"
	fieldSeq       = "seq"
	fieldSender    = "sender"
	fieldContent   = "content"
	fieldLang      = "lang"
	fieldCreatedAt = "created_at"

	undetermined = "und"
)

type Hit struct {
	ID        uint64    `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Content   string    `json:"message"`
	Lang      string    `json:"lang"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score"`
}

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// Open creates or opens an index stored under path.
func Open(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return NewIndex(writer, log), nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Write indexes a text message. Image messages are skipped, their content is a URL.
func (i *Index) Write(message domain.Message) error {
	if message.Kind != domain.KindText {
		return nil
	}
	doc := bluge.NewDocument(DocumentID(message.Room, message.ID)).
		AddField(bluge.NewKeywordField(fieldRoom, message.Room).StoreValue()).
		AddField(bluge.NewNumericField(fieldSeq, float64(message.ID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, message.Sender).StoreValue()).
		AddField(bluge.NewTextField(fieldContent, message.Content).StoreValue()).
		AddField(bluge.NewKeywordField(fieldLang, DetectLanguage(message.Content)).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query on the content of one room, best hits first.
func (i *Index) Search(ctx context.Context, room, text string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close search reader", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(room).SetField(fieldRoom)).
		AddMust(bluge.NewMatchQuery(text).SetField(fieldContent))
	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0)
	match, err := it.Next()
	for err == nil && match != nil {
		hit := Hit{Score: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldRoom:
				hit.Room = string(value)
			case fieldSeq:
				if v, decodeErr := bluge.DecodeNumericFloat64(value); decodeErr == nil {
					hit.ID = uint64(v)
				}
			case fieldSender:
				hit.Sender = string(value)
			case fieldContent:
				hit.Content = string(value)
			case fieldLang:
				hit.Lang = string(value)
			case fieldCreatedAt:
				if v, decodeErr := bluge.DecodeDateTime(value); decodeErr == nil {
					hit.CreatedAt = v.UTC()
				}
			}
			return true
		})
		if err != nil {
			break
		}
		hits = append(hits, hit)
		match, err = it.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func DocumentID(room string, id uint64) string {
	return room + "/" + strconv.FormatUint(id, 10)
}

// DetectLanguage returns an ISO 639-1 code, or "und" when detection is unreliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return undetermined
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return undetermined
	}
	return code
}

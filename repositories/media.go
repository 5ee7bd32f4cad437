package repositories

import (
	"fmt"
	"log/slog"

	"roomchat/domain"
	"roomchat/errors"

	"github.com/dgraph-io/badger/v4"
)

const mediaPrefix = "media:"

// MediaRepository keeps upload metadata in badger, keyed by retrieval id.
type MediaRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMediaRepository(db *badger.DB, log *slog.Logger) *MediaRepository {
	return &MediaRepository{db: db, log: log}
}

func (r *MediaRepository) Save(blob domain.MediaBlob) error {
	value, err := marshalMedia(blob)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(mediaPrefix+blob.ID), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *MediaRepository) Get(id string) (domain.MediaBlob, error) {
	var blob domain.MediaBlob
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(mediaPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			blob, err = unmarshalMedia(value)
			return err
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.MediaBlob{}, fmt.Errorf("%w: %s", errors.ErrMediaNotFound, id)
	case err != nil:
		return domain.MediaBlob{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return blob, nil
}

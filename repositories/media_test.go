package repositories

import (
	"log/slog"
	"testing"
	"time"

	"roomchat/domain"
	"roomchat/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMediaRepository_Save_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewMediaRepository(openBadger(t), slog.Default())

	blob := domain.MediaBlob{
		ID:          uuid.NewString() + "-cat.png",
		Room:        "lobby",
		Sender:      "alice",
		Filename:    "cat.png",
		ContentType: "image/png",
		Size:        42,
		Checksum:    "abc",
		StoredAt:    time.Now().UTC(),
	}
	req.NoError(repository.Save(blob))

	fetched, err := repository.Get(blob.ID)
	req.NoError(err)
	req.Equal(blob.ID, fetched.ID)
	req.Equal(blob.Room, fetched.Room)
	req.Equal(blob.ContentType, fetched.ContentType)
	req.Equal(blob.Size, fetched.Size)
	req.True(blob.StoredAt.Equal(fetched.StoredAt))
}

func TestMediaRepository_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repository := NewMediaRepository(openBadger(t), slog.Default())

	_, err := repository.Get("missing")
	req.ErrorIs(err, errors.ErrMediaNotFound)
}

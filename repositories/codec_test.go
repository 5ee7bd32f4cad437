package repositories

import (
	"testing"
	"time"

	"roomchat/domain"

	"github.com/stretchr/testify/require"
)

func TestDecodeMessage_Reads_Stored_Value(t *testing.T) {
	req := require.New(t)
	message := domain.Message{
		ID:        42,
		Room:      "lobby",
		Sender:    "Alice",
		Kind:      domain.KindImage,
		Content:   "/uploads/0b5e-cat.png",
		CreatedAt: time.Date(2026, 10, 19, 8, 30, 0, 123, time.UTC),
	}

	value, err := marshalMessage(message)
	req.NoError(err)
	decoded, err := DecodeMessage(value)

	req.NoError(err)
	req.Equal(message, decoded)
}

func TestDecodeMessage_Rejects_Corrupted_Value(t *testing.T) {
	_, err := DecodeMessage([]byte{0x0a, 0xff})
	require.Error(t, err)
}

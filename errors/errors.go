package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrUnknownConnection  = fmt.Errorf("unknown connection")
	ErrNotJoined          = fmt.Errorf("connection has not joined a room")
	ErrInvalidMessage     = fmt.Errorf("invalid message")
	ErrInvalidFilename    = fmt.Errorf("invalid filename")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrStoreUnavailable   = fmt.Errorf("message store unavailable")
	ErrStorageUnavailable = fmt.Errorf("media storage unavailable")

	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrMediaNotFound    = fmt.Errorf("media not found")
	ErrUnknownFrame     = fmt.Errorf("unknown frame type")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrSlowConsumer     = fmt.Errorf("outbound queue full")
	ErrUnauthenticated  = fmt.Errorf("unauthenticated")
	ErrRateLimited      = fmt.Errorf("rate limited")
)

// codes is the wire representation sent in error frames.
var codes = []struct {
	err  error
	code string
}{
	{ErrUnknownConnection, "unknown_connection"},
	{ErrNotJoined, "not_joined"},
	{ErrInvalidMessage, "invalid_message"},
	{ErrInvalidFilename, "invalid_filename"},
	{ErrInvalidPayload, "invalid_payload"},
	{ErrStoreUnavailable, "store_unavailable"},
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrUnknownFrame, "unknown_frame"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrRateLimited, "rate_limited"},
	{ErrMediaNotFound, "media_not_found"},
}

// Code returns the wire code of the first sentinel err wraps, "internal" otherwise.
func Code(err error) string {
	for _, c := range codes {
		if stderrors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// Is and As re-export the standard helpers so callers importing this package
// under the name "errors" keep access to them.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

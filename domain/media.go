package domain

import "time"

const (
	KB = 1024
	MB = 1024 * KB
)

// MediaBlob describes a stored upload. The bytes live in the blob storage, not here.
type MediaBlob struct {
	ID          string
	Room        string
	Sender      string
	Filename    string
	ContentType string
	Size        int64
	Checksum    string
	StoredAt    time.Time
}

// URL is the retrieval path exposed to clients.
func (m MediaBlob) URL() string {
	return MediaURL(m.ID)
}

func MediaURL(id string) string {
	return "/uploads/" + id
}

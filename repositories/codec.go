//go:generate protoc --proto_path=../proto --go_out=../proto --go_opt=paths=source_relative storage/storage.proto
package repositories

import (
	"fmt"
	"time"

	"roomchat/domain"
	pb "roomchat/proto/storage"

	"google.golang.org/protobuf/proto"
)

func marshalMessage(m domain.Message) ([]byte, error) {
	bytes, err := proto.Marshal(fromMessage(m))
	if err != nil {
		return nil, fmt.Errorf("marshal message %d of %s: %w", m.ID, m.Room, err)
	}
	return bytes, nil
}

func unmarshalMessage(b []byte) (domain.Message, error) {
	var stored pb.StoredMessage
	if err := proto.Unmarshal(b, &stored); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return toMessage(&stored), nil
}

func marshalMedia(blob domain.MediaBlob) ([]byte, error) {
	bytes, err := proto.Marshal(fromMediaBlob(blob))
	if err != nil {
		return nil, fmt.Errorf("marshal media %s: %w", blob.ID, err)
	}
	return bytes, nil
}

func unmarshalMedia(b []byte) (domain.MediaBlob, error) {
	var stored pb.StoredMedia
	if err := proto.Unmarshal(b, &stored); err != nil {
		return domain.MediaBlob{}, fmt.Errorf("unmarshal media: %w", err)
	}
	return toMediaBlob(&stored), nil
}

func fromMessage(m domain.Message) *pb.StoredMessage {
	return &pb.StoredMessage{
		Id:        m.ID,
		Room:      m.Room,
		Sender:    m.Sender,
		Kind:      uint32(m.Kind),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixNano(),
	}
}

func toMessage(stored *pb.StoredMessage) domain.Message {
	return domain.Message{
		ID:        stored.GetId(),
		Room:      stored.GetRoom(),
		Sender:    stored.GetSender(),
		Kind:      domain.Kind(stored.GetKind()),
		Content:   stored.GetContent(),
		CreatedAt: time.Unix(0, stored.GetCreatedAt()).UTC(),
	}
}

func fromMediaBlob(blob domain.MediaBlob) *pb.StoredMedia {
	return &pb.StoredMedia{
		Id:          blob.ID,
		Room:        blob.Room,
		Sender:      blob.Sender,
		Filename:    blob.Filename,
		ContentType: blob.ContentType,
		Size:        blob.Size,
		Checksum:    blob.Checksum,
		StoredAt:    blob.StoredAt.UnixNano(),
	}
}

func toMediaBlob(stored *pb.StoredMedia) domain.MediaBlob {
	return domain.MediaBlob{
		ID:          stored.GetId(),
		Room:        stored.GetRoom(),
		Sender:      stored.GetSender(),
		Filename:    stored.GetFilename(),
		ContentType: stored.GetContentType(),
		Size:        stored.GetSize(),
		Checksum:    stored.GetChecksum(),
		StoredAt:    time.Unix(0, stored.GetStoredAt()).UTC(),
	}
}

// DecodeMessage reads a stored message value; used by offline tools.
func DecodeMessage(value []byte) (domain.Message, error) {
	return unmarshalMessage(value)
}

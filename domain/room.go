package domain

import (
	"fmt"
	"strings"
)

const MaxRoomLength = 64

// JoinedAnnouncement and LeftAnnouncement are the status lines broadcast to a room.
func JoinedAnnouncement(name string) string {
	return fmt.Sprintf("%s has joined the room.", name)
}

func LeftAnnouncement(name string) string {
	return fmt.Sprintf("%s has left the room.", name)
}

// NormalizeRoom trims surrounding spaces; room keys are otherwise case sensitive.
func NormalizeRoom(room string) string {
	return strings.TrimSpace(room)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnouncements(t *testing.T) {
	req := require.New(t)

	req.Equal("Alice has joined the room.", JoinedAnnouncement("Alice"))
	req.Equal("Bob has left the room.", LeftAnnouncement("Bob"))
}

func TestNormalizeRoom(t *testing.T) {
	req := require.New(t)

	req.Equal("lobby", NormalizeRoom("  lobby\t"))
	req.Equal("Lobby", NormalizeRoom("Lobby"), "room keys stay case sensitive")
	req.Equal("", NormalizeRoom("   "))
}

func TestKind_String_And_Parse(t *testing.T) {
	req := require.New(t)

	for _, kind := range []Kind{KindText, KindImage} {
		req.Equal(kind, ParseKind(kind.String()))
	}
	req.Equal("unknown", Kind(0).String())
	req.Equal(Kind(0), ParseKind("video"))
}

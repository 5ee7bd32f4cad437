package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"spam", "scam", "phish"}, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Single word keeps spacing",
			input:    "this is spam indeed",
			expected: "this is **** indeed",
			words:    []string{"spam"},
		},
		{
			name:     "Leet speak and dots",
			input:    "pure 5.c.4.m here",
			expected: "pure ******* here",
			words:    []string{"scam"},
		},
		{
			name:     "Uppercase, the exclamation mark reads as a leet i",
			input:    "PHISH!",
			expected: "*****!",
			words:    []string{"phish"},
		},
		{
			name:     "Nothing to censor",
			input:    "hello lobby",
			expected: "hello lobby",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_Empty_Dictionary_Is_Transparent(t *testing.T) {
	req := require.New(t)

	// Given a dictionary made only of noise
	mod, err := NewModerator([]string{"", "...", ",,,"}, replacementChar, slog.Default())
	req.NoError(err)

	// Then messages pass through verbatim
	content, words := mod.Censor("hi ... there")
	req.Equal("hi ... there", content)
	req.Nil(words)
}

func TestModerator_Nil_Is_Transparent(t *testing.T) {
	var mod *Moderator
	content, words := mod.Censor("anything")
	require.Equal(t, "anything", content)
	require.Nil(t, words)
}

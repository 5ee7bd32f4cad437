package media

import (
	"strings"
	"unicode"
)

const maxFilenameLength = 128

// SanitizeFilename reduces a client supplied name to a safe storage name:
// only the last path element is kept, control characters are removed,
// whitespace becomes '_' and anything outside [A-Za-z0-9._-] is dropped.
// Leading dots and underscores are trimmed so the result is never hidden.
// An empty result means the name cannot be used.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'):
			b.WriteRune(r)
		}
	}

	res := strings.TrimLeft(b.String(), "._")
	if len(res) > maxFilenameLength {
		res = res[len(res)-maxFilenameLength:]
		res = strings.TrimLeft(res, "._")
	}
	return res
}

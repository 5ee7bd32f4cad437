package mimetypes

import (
	"mime"
	"strings"

	"github.com/samber/lo"
)

type MIME string

const (
	Unknown MIME = "unknown"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
	ImageBMP  MIME = "image/bmp"
)

// DefaultImages is the allow-list used when none is configured.
var DefaultImages = []MIME{ImagePNG, ImageJPEG, ImageGIF, ImageWEBP}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Allowed returns the matching entry of allowed, if any.
func Allowed(detected string, allowed []MIME) (MIME, bool) {
	return lo.Find(allowed, func(candidate MIME) bool {
		_, ok := Matches(detected, candidate)
		return ok
	})
}

// Parse reads a comma separated list such as "image/png, image/jpeg".
func Parse(list string) []MIME {
	var res []MIME
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			res = append(res, MIME(strings.ToLower(part)))
		}
	}
	return res
}

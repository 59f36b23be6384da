package genproxy

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// DefaultImageMimeType is assumed when the upstream omits a mime type.
const DefaultImageMimeType = "image/png"

var dataURIPattern = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)

// InlineImage is a decoded data URI.
type InlineImage struct {
	MimeType string
	Data     string // base64 payload, not decoded
}

// ParseDataURI splits a `data:<mime>;base64,<data>` string. ok is false for
// anything that does not have exactly that shape.
func ParseDataURI(uri string) (img InlineImage, ok bool) {
	m := dataURIPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return InlineImage{}, false
	}
	return InlineImage{MimeType: m[1], Data: m[2]}, true
}

// FormatDataURI is the inverse of ParseDataURI.
func FormatDataURI(mimeType, data string) string {
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, data)
}

// EncodeDataURI base64-encodes raw bytes into a data URI.
func EncodeDataURI(mimeType string, raw []byte) string {
	return FormatDataURI(mimeType, base64.StdEncoding.EncodeToString(raw))
}

// validImages keeps the entries that parse as data URIs, in order.
func validImages(uris []string) []InlineImage {
	images := make([]InlineImage, 0, len(uris))
	for _, uri := range uris {
		if img, ok := ParseDataURI(uri); ok {
			images = append(images, img)
		}
	}
	return images
}

// DetectMimeType detects an image mime type from a Content-Type header or a
// file name extension.
func DetectMimeType(contentType, fileName string) string {
	// Try to detect from Content-Type header first
	if contentType != "" {
		contentType = strings.ToLower(contentType)
		switch {
		case strings.Contains(contentType, "image/jpeg"), strings.Contains(contentType, "image/jpg"):
			return "image/jpeg"
		case strings.Contains(contentType, "image/png"):
			return "image/png"
		case strings.Contains(contentType, "image/gif"):
			return "image/gif"
		case strings.Contains(contentType, "image/webp"):
			return "image/webp"
		}
	}

	// Fallback to file extension
	fileName = strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(fileName, ".jpg"), strings.HasSuffix(fileName, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(fileName, ".png"):
		return "image/png"
	case strings.HasSuffix(fileName, ".gif"):
		return "image/gif"
	case strings.HasSuffix(fileName, ".webp"):
		return "image/webp"
	case strings.HasSuffix(fileName, ".mp4"):
		return "video/mp4"
	}

	return DefaultImageMimeType
}

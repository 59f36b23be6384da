package genproxy

import (
	"encoding/base64"
	"testing"
)

func TestParseDataURI(t *testing.T) {
	img, ok := ParseDataURI("data:image/jpeg;base64,/9j/4AAQ")
	if !ok {
		t.Fatal("Expected data URI to parse")
	}
	if img.MimeType != "image/jpeg" || img.Data != "/9j/4AAQ" {
		t.Errorf("Unexpected parse result: %+v", img)
	}
}

func TestParseDataURIRejectsOtherShapes(t *testing.T) {
	for _, uri := range []string{
		"",
		"https://example.com/cat.png",
		"data:image/png,AAAA",
		"data:;base64,AAAA",
		"data:image/png;base64,",
		"image/png;base64,AAAA",
	} {
		if _, ok := ParseDataURI(uri); ok {
			t.Errorf("Expected %q to be rejected", uri)
		}
	}
}

func TestValidImagesSkipsMalformed(t *testing.T) {
	images := validImages([]string{
		"data:image/png;base64,AAA=",
		"not a data uri",
		"data:image/webp;base64,BBB=",
	})
	if len(images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(images))
	}
	if images[0].Data != "AAA=" || images[1].MimeType != "image/webp" {
		t.Errorf("Unexpected images: %+v", images)
	}
}

func TestEncodeDataURI(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4E, 0x47}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	if got := EncodeDataURI("image/png", raw); got != want {
		t.Errorf("EncodeDataURI = %q, want %q", got, want)
	}
	if got := FormatDataURI("", "AAA="); got != "data:image/png;base64,AAA=" {
		t.Errorf("Expected default mime type, got %q", got)
	}
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		contentType string
		fileName    string
		expected    string
	}{
		{"image/jpeg", "", "image/jpeg"},
		{"image/jpg", "", "image/jpeg"},
		{"image/png", "", "image/png"},
		{"image/gif", "", "image/gif"},
		{"image/webp", "", "image/webp"},
		{"", "photo.jpg", "image/jpeg"},
		{"", "photo.JPEG", "image/jpeg"},
		{"", "image.png", "image/png"},
		{"", "clip.mp4", "video/mp4"},
		{"application/octet-stream", "image.webp", "image/webp"},
		{"", "unknown", "image/png"},
	}

	for _, tt := range tests {
		if got := DetectMimeType(tt.contentType, tt.fileName); got != tt.expected {
			t.Errorf("DetectMimeType(%q, %q) = %q, want %q", tt.contentType, tt.fileName, got, tt.expected)
		}
	}
}

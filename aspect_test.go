package genproxy

import "testing"

func TestNormalizeVideoAspectRatio(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"16:9", "16:9"},
		{"9:16", "9:16"},
		{"4:3", "16:9"},
		{"3:4", "9:16"},
		{"1:1", "16:9"},
		{"1:2.5", "9:16"},
		{" 2 : 3 ", "9:16"},
		{"wide", "16:9"},
		{"16x9", "16:9"},
		{"a:b", "16:9"},
		{"", "16:9"},
	}

	for _, tt := range tests {
		if got := NormalizeVideoAspectRatio(tt.in); got != tt.want {
			t.Errorf("NormalizeVideoAspectRatio(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithAspectInstruction(t *testing.T) {
	if got := withAspectInstruction("a cat", ""); got != "a cat" {
		t.Errorf("Expected prompt unchanged, got %q", got)
	}
	if got := withAspectInstruction("a cat", "3:2"); got != "a cat\n\nAspect ratio: 3:2" {
		t.Errorf("Unexpected prompt: %q", got)
	}
}

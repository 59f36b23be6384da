package genproxy

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		model      string
		preferText bool
		want       Profile
	}{
		{"nano-banana-pro-preview", false, ProfileImage},
		{"nano-banana-pro-preview", true, ProfileText},
		{"gemini-2.5-flash-image", false, ProfileImage},
		{"gemini-2.5-flash-image", true, ProfileText},
		{"imagen-4.0-generate-001", false, ProfileImage},
		{"veo-3", false, ProfileVideo},
		{"veo-3", true, ProfileVideo},
		{"VEO-3.1-generate-preview", false, ProfileVideo},
		{"video-image-hybrid", false, ProfileVideo},
		{"gemini-3-flash", false, ProfileText},
		{"gemini-3-flash", true, ProfileText},
		{"", false, ProfileText},
	}

	for _, tt := range tests {
		if got := Classify(tt.model, tt.preferText); got != tt.want {
			t.Errorf("Classify(%q, %v) = %v, want %v", tt.model, tt.preferText, got, tt.want)
		}
	}
}

func TestProfileString(t *testing.T) {
	if ProfileText.String() != "text" || ProfileImage.String() != "image" || ProfileVideo.String() != "video" {
		t.Errorf("Unexpected profile names: %s %s %s", ProfileText, ProfileImage, ProfileVideo)
	}
}

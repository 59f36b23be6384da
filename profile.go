package genproxy

import "strings"

// Profile is the capability class of a model. It decides the payload shape
// and how the reply is read.
type Profile int

const (
	ProfileText Profile = iota
	ProfileImage
	ProfileVideo
)

func (p Profile) String() string {
	switch p {
	case ProfileImage:
		return "image"
	case ProfileVideo:
		return "video"
	default:
		return "text"
	}
}

var (
	videoMarkers = []string{"veo", "video"}
	imageMarkers = []string{"image", "banana"}
)

// Classify derives the profile of a model identifier. Video wins over
// everything; an image model is treated as Text when preferText is set.
func Classify(model string, preferText bool) Profile {
	id := strings.ToLower(model)
	if containsAny(id, videoMarkers) {
		return ProfileVideo
	}
	if containsAny(id, imageMarkers) && !preferText {
		return ProfileImage
	}
	return ProfileText
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

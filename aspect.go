package genproxy

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
)

// NormalizeVideoAspectRatio maps any ratio onto the two the video API
// accepts. Taller-than-wide ratios become portrait, everything else,
// unparseable input included, becomes landscape.
func NormalizeVideoAspectRatio(ratio string) string {
	ratio = strings.TrimSpace(ratio)
	if ratio == AspectLandscape || ratio == AspectPortrait {
		return ratio
	}
	w, h, ok := strings.Cut(ratio, ":")
	if !ok {
		return AspectLandscape
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return AspectLandscape
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return AspectLandscape
	}
	if height > width {
		return AspectPortrait
	}
	return AspectLandscape
}

// withAspectInstruction appends the ratio to an image prompt. The image API
// has no ratio field in this payload shape, so this is best effort.
func withAspectInstruction(prompt, ratio string) string {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return prompt
	}
	return fmt.Sprintf("%s\n\nAspect ratio: %s", prompt, ratio)
}

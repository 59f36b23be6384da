package genproxy

import (
	"encoding/json"
	"net/http"

	"github.com/liuzl/genproxy/gemini"
	"github.com/tidwall/gjson"
)

const (
	textInstruction = "You are a precise assistant. Follow the user's instructions exactly " +
		"and answer with the requested content only."
	imageInstruction = "You are an image generation engine. Respond with the generated image only. " +
		"Do not include any textual explanation, commentary or description."
)

// generation is a validated request, ready to be sent upstream.
type generation struct {
	prompt      string
	model       string
	profile     Profile
	preferText  bool
	images      []InlineImage
	aspectRatio string
}

// profileAdapter holds the profile-specific halves of a dispatch: which
// upstream method to call, how to build its payload and how to read its reply.
type profileAdapter interface {
	method() string
	buildPayload(g *generation) any
	normalize(g *generation, raw []byte) (*Result, error)
}

var adapters = map[Profile]profileAdapter{
	ProfileText:  contentAdapter{instruction: textInstruction},
	ProfileImage: contentAdapter{instruction: imageInstruction},
	ProfileVideo: videoAdapter{},
}

// contentAdapter serves Text and Image through generateContent.
type contentAdapter struct {
	instruction string
}

func (contentAdapter) method() string { return gemini.MethodGenerateContent }

func (a contentAdapter) buildPayload(g *generation) any {
	prompt := g.prompt
	if g.profile == ProfileImage {
		prompt = withAspectInstruction(prompt, g.aspectRatio)
	}

	parts := make([]gemini.Part, 0, len(g.images)+1)
	parts = append(parts, gemini.Part{Text: gemini.StringPtr(prompt)})
	for _, img := range g.images {
		parts = append(parts, gemini.Part{InlineData: &gemini.InlineData{
			MimeType: img.MimeType,
			Data:     img.Data,
		}})
	}

	return &gemini.GenerateContentRequest{
		SystemInstruction: &gemini.Content{
			Parts: []gemini.Part{{Text: gemini.StringPtr(a.instruction)}},
		},
		Contents: []gemini.Content{{
			Role:  gemini.StringPtr("user"),
			Parts: parts,
		}},
		SafetySettings:   permissiveSafetySettings(),
		GenerationConfig: samplingConfig(),
	}
}

func (contentAdapter) normalize(g *generation, raw []byte) (*Result, error) {
	var resp gemini.GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, NewUpstreamProtocolError(http.StatusOK, "", string(raw), err)
	}
	keepImage := g.profile == ProfileImage || !g.preferText
	return resolve(g, scanResponse(&resp, keepImage))
}

func permissiveSafetySettings() []gemini.SafetySetting {
	categories := []gemini.HarmCategory{
		gemini.HarmCategoryHarassment,
		gemini.HarmCategoryHateSpeech,
		gemini.HarmCategorySexuallyExplicit,
		gemini.HarmCategoryDangerousContent,
	}
	settings := make([]gemini.SafetySetting, len(categories))
	for i, c := range categories {
		settings[i] = gemini.SafetySetting{Category: c, Threshold: gemini.BlockNone}
	}
	return settings
}

func samplingConfig() *gemini.GenerationConfig {
	return &gemini.GenerationConfig{
		Temperature: gemini.Float64Ptr(0.9),
		TopP:        gemini.Float64Ptr(0.95),
		TopK:        gemini.IntPtr(40),
	}
}

// videoAdapter serves Video through predictLongRunning.
type videoAdapter struct{}

func (videoAdapter) method() string { return gemini.MethodPredictLongRunning }

func (videoAdapter) buildPayload(g *generation) any {
	instance := gemini.VideoInstance{Prompt: g.prompt}
	if len(g.images) > 0 {
		instance.Image = &gemini.VideoImage{
			BytesBase64Encoded: g.images[0].Data,
			MimeType:           g.images[0].MimeType,
		}
	}
	return &gemini.PredictLongRunningRequest{
		Instances: []gemini.VideoInstance{instance},
		Parameters: gemini.VideoParameters{
			AspectRatio: NormalizeVideoAspectRatio(g.aspectRatio),
			SampleCount: 1,
		},
	}
}

func (videoAdapter) normalize(g *generation, raw []byte) (*Result, error) {
	name := gjson.GetBytes(raw, "name").String()
	if name == "" {
		return nil, NewUpstreamProtocolError(http.StatusOK, "upstream returned no operation name", string(raw), nil)
	}
	return &Result{
		Type:        ResultOperation,
		OperationID: name,
		Operation:   json.RawMessage(raw),
	}, nil
}

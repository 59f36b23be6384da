package gemini

import "encoding/json"

// Request Types

// GenerateContentRequest represents the main request structure for generating content
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
}

// Content represents a content item with parts and optional role
type Content struct {
	Parts []Part  `json:"parts"`
	Role  *string `json:"role,omitempty"`
}

// Part represents a content part (text, inline image, file reference).
// Some upstream replies use snake_case for inline data, hence InlineDataAlt.
type Part struct {
	Text          *string     `json:"text,omitempty"`
	InlineData    *InlineData `json:"inlineData,omitempty"`
	InlineDataAlt *InlineData `json:"inline_data,omitempty"`
	FileData      *FileData   `json:"fileData,omitempty"`
}

// Blob returns the inline data of the part under either spelling.
func (p Part) Blob() *InlineData {
	if p.InlineData != nil {
		return p.InlineData
	}
	return p.InlineDataAlt
}

// InlineData represents inline data (like base64 encoded images)
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData represents file data reference
type FileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// GenerationConfig represents configuration for content generation
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	CandidateCount  *int     `json:"candidateCount,omitempty"`
}

// SafetySetting represents safety settings for content generation
type SafetySetting struct {
	Category  HarmCategory       `json:"category"`
	Threshold HarmBlockThreshold `json:"threshold"`
}

// HarmCategory represents different categories of harmful content
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// HarmBlockThreshold represents the threshold for blocking harmful content
type HarmBlockThreshold string

const (
	BlockLowAndAbove    HarmBlockThreshold = "BLOCK_LOW_AND_ABOVE"
	BlockMediumAndAbove HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockOnlyHigh       HarmBlockThreshold = "BLOCK_ONLY_HIGH"
	BlockNone           HarmBlockThreshold = "BLOCK_NONE"
)

// PredictLongRunningRequest is the video prediction payload.
type PredictLongRunningRequest struct {
	Instances  []VideoInstance `json:"instances"`
	Parameters VideoParameters `json:"parameters"`
}

// VideoInstance is one prompt, optionally with a start frame.
type VideoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *VideoImage `json:"image,omitempty"`
}

// VideoImage is a start frame for image-to-video generation.
type VideoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

// VideoParameters controls video generation.
type VideoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	SampleCount int    `json:"sampleCount"`
}

// Response Types

// GenerateContentResponse represents the response from content generation
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

// Candidate represents a generated content candidate
type Candidate struct {
	Content      Content       `json:"content"`
	FinishReason *FinishReason `json:"finishReason,omitempty"`
	Index        *int          `json:"index,omitempty"`
}

// FinishReason represents the reason why generation finished
type FinishReason string

const (
	FinishReasonStop       FinishReason = "STOP"
	FinishReasonMaxTokens  FinishReason = "MAX_TOKENS"
	FinishReasonSafety     FinishReason = "SAFETY"
	FinishReasonRecitation FinishReason = "RECITATION"
	FinishReasonOther      FinishReason = "OTHER"
)

// PromptFeedback represents feedback about the prompt
type PromptFeedback struct {
	BlockReason *string `json:"blockReason,omitempty"`
}

// UsageMetadata represents usage metadata
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Operation is a long-running operation handle. Raw keeps the reply as it
// was received so it can be relayed unchanged.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done,omitempty"`
	Error    *Error          `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// Error Types

// Error represents an API error
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error Error `json:"error"`
}

// Helper functions for creating pointers
func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func Float64Ptr(f float64) *float64 {
	return &f
}

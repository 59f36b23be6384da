// Package genproxy proxies prompt, image and video generation requests to the
// Gemini API and normalizes the replies into one client-facing envelope.
package genproxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liuzl/genproxy/gemini"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "gemini-3-flash-preview"

// Request is a generation request as sent by the front-end.
type Request struct {
	Prompt      string   `json:"prompt" jsonschema:"what to generate"`
	APIKey      string   `json:"apiKey,omitempty" jsonschema:"Gemini API key, overrides the server key"`
	Model       string   `json:"model,omitempty" jsonschema:"model name; veo models produce video and image models produce images"`
	PreferText  bool     `json:"preferText,omitempty" jsonschema:"return text even from a model that can draw"`
	Images      []string `json:"images,omitempty" jsonschema:"reference images as base64 data URIs"`
	Image       string   `json:"image,omitempty" jsonschema:"a single reference image as a base64 data URI"`
	AspectRatio string   `json:"aspectRatio,omitempty" jsonschema:"requested aspect ratio such as 16:9"`
}

// AllImages returns Images with the single Image field appended.
func (r *Request) AllImages() []string {
	if r.Image == "" {
		return r.Images
	}
	images := make([]string, 0, len(r.Images)+1)
	images = append(images, r.Images...)
	return append(images, r.Image)
}

// DecodeRequest reads a JSON generation request. An empty or malformed body
// is a ValidationError.
func DecodeRequest(body io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, NewValidationError("empty or invalid body", err)
	}
	return &req, nil
}

// ResultType tags the shape of a Result.
type ResultType string

const (
	ResultText      ResultType = "text"
	ResultImage     ResultType = "image"
	ResultOperation ResultType = "operation"
)

// OperationStartedMessage accompanies every operation handle.
const OperationStartedMessage = "Video generation started. Poll the operation until it is done."

// Result is the normalized outcome of a generation request.
type Result struct {
	Type        ResultType
	Profile     Profile
	Model       string
	Text        string
	DataURI     string
	Warning     string
	OperationID string
	Operation   json.RawMessage
}

type textEnvelope struct {
	Output string     `json:"output"`
	Text   string     `json:"text"`
	Type   ResultType `json:"type"`
	Error  *string    `json:"error"`
}

type imageEnvelope struct {
	Output string     `json:"output"`
	Type   ResultType `json:"type"`
}

type operationEnvelope struct {
	Type        ResultType      `json:"type"`
	Operation   json.RawMessage `json:"operation"`
	Message     string          `json:"message"`
	OperationID string          `json:"operationId"`
}

// MarshalJSON renders the client-facing envelope for the result type.
func (r *Result) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ResultImage:
		return json.Marshal(imageEnvelope{Output: r.DataURI, Type: r.Type})
	case ResultOperation:
		return json.Marshal(operationEnvelope{
			Type:        r.Type,
			Operation:   r.Operation,
			Message:     OperationStartedMessage,
			OperationID: r.OperationID,
		})
	case ResultText:
		env := textEnvelope{Output: r.Text, Text: r.Text, Type: r.Type}
		if r.Warning != "" {
			env.Error = &r.Warning
		}
		return json.Marshal(env)
	default:
		return nil, errors.New("genproxy: result has no type")
	}
}

// config holds the settings shared by Dispatcher and Poller.
type config struct {
	fallbackAPIKey string
	defaultModel   string
	baseURL        string
	apiVersion     string
	httpClient     *http.Client
}

// Option is the function signature for configuration options.
type Option func(*config)

// WithFallbackAPIKey sets the credential used when a request carries none.
func WithFallbackAPIKey(apiKey string) Option {
	return func(c *config) {
		c.fallbackAPIKey = strings.TrimSpace(apiKey)
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

// WithBaseURL sets a custom base URL for the upstream API.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithAPIVersion sets the upstream API version path segment.
func WithAPIVersion(apiVersion string) Option {
	return func(c *config) {
		c.apiVersion = apiVersion
	}
}

// WithTimeout sets the timeout of the outbound HTTP call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithHTTPClient sets the HTTP client used for outbound calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		defaultModel: DefaultModel,
		httpClient:   &http.Client{Timeout: gemini.DefaultTimeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// client returns an upstream client bound to apiKey. Clients are cheap and
// share cfg.httpClient.
func (c *config) client(apiKey string) *gemini.Client {
	return gemini.NewClient(apiKey,
		gemini.WithBaseURL(c.baseURL),
		gemini.WithAPIVersion(c.apiVersion),
		gemini.WithHTTPClient(c.httpClient),
	)
}

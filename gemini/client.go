package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultTimeout    = 5 * time.Minute

	MethodGenerateContent    = "generateContent"
	MethodPredictLongRunning = "predictLongRunning"
)

// Client is a raw REST client for the Gemini API. It authenticates with the
// `key` query parameter and never retries.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the client
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithAPIVersion sets the API version for the client
func WithAPIVersion(apiVersion string) ClientOption {
	return func(c *Client) {
		if apiVersion != "" {
			c.apiVersion = apiVersion
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
	}
}

// WithHTTPClient sets a custom HTTP client. Clients built per request share
// the same connection pool this way.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a new Gemini API client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// APIError is a JSON error reply from the upstream.
type APIError struct {
	StatusCode int
	Err        Error
}

func (e *APIError) Error() string {
	if e.Err.Message == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Err.Message)
}

// ProtocolError is returned when the upstream answered with something that
// is not JSON. Body holds the raw reply for diagnosis.
type ProtocolError struct {
	StatusCode  int
	ContentType string
	Body        string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected %q response (HTTP %d)", e.ContentType, e.StatusCode)
}

// endpoint builds <base>/<version>/<path>?key=<apiKey>.
func (c *Client) endpoint(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(c.apiVersion, path)
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doRequestRaw performs a single HTTP request and returns the raw JSON body.
func (c *Client) doRequestRaw(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var body io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	target, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// url.Error repeats the full URL, key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer httpResp.Body.Close()

	respBodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := httpResp.Header.Get("Content-Type")
	if !isJSON(contentType) || !json.Valid(respBodyBytes) {
		return nil, &ProtocolError{
			StatusCode:  httpResp.StatusCode,
			ContentType: contentType,
			Body:        string(respBodyBytes),
		}
	}

	if httpResp.StatusCode >= 400 {
		var apiError ErrorResponse
		// A JSON body without the usual error envelope leaves Message empty.
		_ = json.Unmarshal(respBodyBytes, &apiError)
		return nil, &APIError{
			StatusCode: httpResp.StatusCode,
			Err:        apiError.Error,
		}
	}

	return respBodyBytes, nil
}

// Call invokes <model>:<method> with payload and returns the raw reply.
func (c *Client) Call(ctx context.Context, model, method string, payload any) ([]byte, error) {
	path := fmt.Sprintf("/models/%s:%s", model, method)
	return c.doRequestRaw(ctx, http.MethodPost, path, payload)
}

// GenerateContent generates content using the Gemini API
func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	raw, err := c.Call(ctx, model, MethodGenerateContent, req)
	if err != nil {
		return nil, err
	}
	var resp GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// PredictLongRunning starts a long-running prediction (video generation).
func (c *Client) PredictLongRunning(ctx context.Context, model string, req *PredictLongRunningRequest) (*Operation, error) {
	raw, err := c.Call(ctx, model, MethodPredictLongRunning, req)
	if err != nil {
		return nil, err
	}
	var op Operation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}
	op.Raw = raw
	return &op, nil
}

// GetOperation fetches the current state of a long-running operation. The
// body is returned untouched.
func (c *Client) GetOperation(ctx context.Context, name string) ([]byte, error) {
	return c.doRequestRaw(ctx, http.MethodGet, name, nil)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

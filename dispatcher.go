package genproxy

import (
	"context"
	"errors"
	"strings"

	"github.com/liuzl/genproxy/gemini"
	"zliu.org/goutil/rest"
)

const maxLoggedBody = 2048

// Dispatcher turns generation requests into one upstream call each and
// normalizes the reply. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	cfg *config
}

// NewDispatcher creates a Dispatcher. The fallback credential and default
// model are injected here rather than read from the environment.
func NewDispatcher(opts ...Option) *Dispatcher {
	return &Dispatcher{cfg: newConfig(opts)}
}

// DefaultModel returns the model used when a request names none.
func (d *Dispatcher) DefaultModel() string {
	return d.cfg.defaultModel
}

// Generate validates req, dispatches it upstream and returns the normalized
// result. Validation and configuration failures happen before any network
// call.
func (d *Dispatcher) Generate(ctx context.Context, req *Request) (*Result, error) {
	g, apiKey, err := d.prepare(req)
	if err != nil {
		return nil, err
	}

	adapter := adapters[g.profile]
	client := d.cfg.client(apiKey)
	raw, err := client.Call(ctx, g.model, adapter.method(), adapter.buildPayload(g))
	if err != nil {
		return nil, upstreamError(err)
	}

	res, err := adapter.normalize(g, raw)
	if err != nil {
		var protoErr *UpstreamProtocolError
		if errors.As(err, &protoErr) && protoErr.Body != "" {
			logUpstreamBody(g.model, protoErr.UpstreamStatus, protoErr.Body)
		}
		return nil, err
	}
	res.Profile = g.profile
	res.Model = g.model
	return res, nil
}

// prepare runs every check that must pass before the upstream is contacted.
func (d *Dispatcher) prepare(req *Request) (*generation, string, error) {
	if req == nil {
		return nil, "", NewValidationError("empty or invalid body", nil)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, "", NewValidationError("prompt required", nil)
	}
	apiKey := ResolveAPIKey(req.APIKey, d.cfg.fallbackAPIKey)
	if apiKey == "" {
		return nil, "", NewConfigurationError("API key missing")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = d.cfg.defaultModel
	}
	return &generation{
		prompt:      req.Prompt,
		model:       model,
		profile:     Classify(model, req.PreferText),
		preferText:  req.PreferText,
		images:      validImages(req.AllImages()),
		aspectRatio: req.AspectRatio,
	}, apiKey, nil
}

// upstreamError maps upstream client failures onto the proxy error classes.
func upstreamError(err error) error {
	var (
		apiErr   *gemini.APIError
		protoErr *gemini.ProtocolError
	)
	switch {
	case errors.As(err, &apiErr):
		return NewUpstreamApplicationError(apiErr.StatusCode, apiErr.Err.Message, err)
	case errors.As(err, &protoErr):
		logUpstreamBody("", protoErr.StatusCode, protoErr.Body)
		return NewUpstreamProtocolError(protoErr.StatusCode, "", protoErr.Body, err)
	default:
		return NewInternalError(err)
	}
}

func logUpstreamBody(model string, status int, body string) {
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	rest.Log().Error().
		Str("model", model).
		Int("upstream_status", status).
		Str("body", body).
		Msg("unusable upstream response")
}

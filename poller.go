package genproxy

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Poller relays the state of long-running operations. It does not decide
// whether an operation is finished; that is the caller's business.
type Poller struct {
	cfg *config
}

// NewPoller creates a Poller.
func NewPoller(opts ...Option) *Poller {
	return &Poller{cfg: newConfig(opts)}
}

// Poll fetches the operation and returns the upstream JSON verbatim. Both
// operationID and apiKey are required; no fallback key is applied.
func (p *Poller) Poll(ctx context.Context, operationID, apiKey string) (json.RawMessage, error) {
	operationID = strings.Trim(strings.TrimSpace(operationID), "/")
	apiKey = strings.TrimSpace(apiKey)
	if operationID == "" || apiKey == "" {
		return nil, NewValidationError("operation id and key required", nil)
	}

	raw, err := p.cfg.client(apiKey).GetOperation(ctx, operationID)
	if err != nil {
		return nil, upstreamError(err)
	}
	return json.RawMessage(raw), nil
}

// OperationState is a caller-side reading of a relayed operation.
type OperationState struct {
	Done  bool
	Error string
}

// ReadOperationState reads the completion fields of an operation body. It
// is meant for callers that drive a polling loop.
func ReadOperationState(raw []byte) OperationState {
	res := gjson.GetManyBytes(raw, "done", "error.message")
	return OperationState{Done: res[0].Bool(), Error: res[1].String()}
}

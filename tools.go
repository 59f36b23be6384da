package genproxy

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// OperationArgs are the arguments of the get_operation tool.
type OperationArgs struct {
	OperationID string `json:"operationId" jsonschema:"the operation name returned by the generate tool"`
	APIKey      string `json:"apiKey" jsonschema:"the API key the operation was started with"`
}

// NewToolServer exposes the Dispatcher and Poller as MCP tools. Tool results
// carry the same JSON envelopes as the HTTP routes.
func NewToolServer(d *Dispatcher, p *Poller, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "genproxy", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate",
		Description: "Generate text, an image or start a video generation from a prompt and optional data-URI images.",
	}, generateTool(d))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_operation",
		Description: "Fetch the raw state of a video generation operation.",
	}, operationTool(p))
	return server
}

func generateTool(d *Dispatcher) mcp.ToolHandlerFor[Request, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, req Request) (*mcp.CallToolResult, any, error) {
		res, err := d.Generate(ctx, &req)
		if err != nil {
			return toolError(err), nil, nil
		}
		body, err := json.Marshal(res)
		if err != nil {
			return nil, nil, err
		}
		return toolText(string(body)), nil, nil
	}
}

func operationTool(p *Poller) mcp.ToolHandlerFor[OperationArgs, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args OperationArgs) (*mcp.CallToolResult, any, error) {
		raw, err := p.Poll(ctx, args.OperationID, args.APIKey)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolText(string(raw)), nil, nil
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(err error) *mcp.CallToolResult {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	res := toolText(string(body))
	res.IsError = true
	return res
}

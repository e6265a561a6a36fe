// ABOUTME: Shared environment and helpers for capability handlers
// ABOUTME: Handlers receive Env opaquely through the call context

package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/townday/townday/internal/mcp"
	"github.com/townday/townday/internal/store"
)

// withDescription sets a schema's description; openapi3.Schema has no
// builder method for it.
func withDescription(s *openapi3.Schema, description string) *openapi3.Schema {
	s.Description = description
	return s
}

// Env carries the collaborators every handler needs. It is passed
// opaquely through the MCP call context.
type Env struct {
	Store  store.Store
	Logger *slog.Logger
}

// envFrom recovers the typed environment from a call context. A wrong
// type is a wiring bug; the panic is contained by the dispatcher.
func envFrom(call *mcp.CallContext) *Env {
	env, ok := call.Env.(*Env)
	if !ok {
		panic(fmt.Sprintf("unexpected env type %T", call.Env))
	}
	return env
}

// jsonResult marshals v as an indented text content block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewTextResult(string(data)), nil
}

// argString reads an optional string argument.
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt reads an optional integer argument. JSON numbers arrive as
// float64 after generic decoding.
func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

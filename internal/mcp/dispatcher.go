// ABOUTME: JSON-RPC dispatch: batch handling, method routing, scope gating, schema validation
// ABOUTME: Domain failures surface as isError tool results; protocol failures as error envelopes

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/townday/townday/internal/auth"
)

// ErrResourceNotFound is returned by resource handlers when a URI that
// matched a template names an entity that does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// Dispatcher evaluates JSON-RPC envelopes against the capability
// registry. It is safe for concurrent use.
type Dispatcher struct {
	registry   *Registry
	serverInfo Implementation
	env        any
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. env is
// handed opaquely to every handler via CallContext.
func NewDispatcher(registry *Registry, serverInfo Implementation, env any, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:   registry,
		serverInfo: serverInfo,
		env:        env,
		logger:     logger.With("component", "mcp"),
	}
}

// DispatchBody evaluates a raw request body, which may be a single
// envelope or a batch. The returned slice preserves input order for
// batches; it is nil when every envelope was a notification (in which
// case the transport sends no body). The second return distinguishes
// batch requests, whose responses are serialized as an array even when
// only one entry remains.
func (d *Dispatcher) DispatchBody(ctx context.Context, body []byte, authResult *auth.Result) (responses []*JSONRPCResponse, batch bool) {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		return d.dispatchBatch(ctx, body, authResult), true
	}
	if resp := d.dispatchRaw(ctx, body, authResult); resp != nil {
		return []*JSONRPCResponse{resp}, false
	}
	return nil, false
}

// dispatchBatch evaluates a batch array. Entries run concurrently;
// results keep input order. An empty or oversized batch is a single
// invalid-request error, not a batch of errors.
func (d *Dispatcher) dispatchBatch(ctx context.Context, body []byte, authResult *auth.Result) []*JSONRPCResponse {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return []*JSONRPCResponse{newError(nil, CodeParseError, "parse error", nil)}
	}
	if len(raws) == 0 {
		return []*JSONRPCResponse{newError(nil, CodeInvalidRequest, "empty batch", nil)}
	}
	if len(raws) > MaxBatchSize {
		return []*JSONRPCResponse{newError(nil, CodeInvalidRequest,
			fmt.Sprintf("batch exceeds %d requests", MaxBatchSize), nil)}
	}

	slots := make([]*JSONRPCResponse, len(raws))
	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw json.RawMessage) {
			defer wg.Done()
			slots[i] = d.dispatchRaw(ctx, raw, authResult)
		}(i, raw)
	}
	wg.Wait()

	out := make([]*JSONRPCResponse, 0, len(slots))
	for _, resp := range slots {
		if resp != nil {
			out = append(out, resp)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// dispatchRaw evaluates one raw envelope. It returns nil for
// notifications, which produce no response entry even on error.
func (d *Dispatcher) dispatchRaw(ctx context.Context, raw []byte, authResult *auth.Result) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return newError(nil, CodeParseError, "parse error", nil)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return newError(req.ID, CodeInvalidRequest, "invalid request", nil)
	}

	resp := d.dispatch(ctx, &req, authResult)
	if req.IsNotification() {
		return nil
	}
	return resp
}

// dispatch routes a structurally valid request. A panic in any handler
// is contained to this envelope and reported as a generic internal
// error with no detail leaked to the wire.
func (d *Dispatcher) dispatch(ctx context.Context, req *JSONRPCRequest, authResult *auth.Result) (resp *JSONRPCResponse) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in request handler",
				"method", req.Method, "panic", r, "stack", string(debug.Stack()))
			resp = newError(req.ID, CodeInternalError, "internal error", nil)
		}
	}()

	// initialize and ping are reachable without credentials so clients
	// can probe the endpoint before authenticating.
	switch req.Method {
	case MethodInitialize:
		return d.handleInitialize(req)
	case MethodPing:
		return newResult(req.ID, struct{}{})
	}

	if authResult == nil {
		return newError(req.ID, CodeAuthRequired, "authentication required", nil)
	}

	call := &CallContext{Auth: authResult, Env: d.env}

	switch req.Method {
	case MethodToolsList:
		return d.handleToolsList(req, authResult)
	case MethodToolsCall:
		return d.handleToolsCall(ctx, req, call)
	case MethodResourcesList:
		return d.handleResourcesList(req, authResult)
	case MethodResourcesTemplatesList:
		return d.handleResourceTemplatesList(req, authResult)
	case MethodResourcesRead:
		return d.handleResourcesRead(ctx, req, call)
	case MethodPromptsList:
		return d.handlePromptsList(req, authResult)
	case MethodPromptsGet:
		return d.handlePromptsGet(ctx, req, call)
	default:
		return newError(req.ID, CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

// handleInitialize negotiates a protocol version: the client's version
// is echoed when supported, otherwise the latest supported version is
// offered.
func (d *Dispatcher) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newError(req.ID, CodeInvalidParams, "invalid params", nil)
		}
	}

	version := latestProtocolVersion
	if supportedProtocolVersions[params.ProtocolVersion] {
		version = params.ProtocolVersion
	}

	return newResult(req.ID, &InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools:     &capabilityFlags{},
			Resources: &capabilityFlags{},
			Prompts:   &capabilityFlags{},
		},
		ServerInfo: d.serverInfo,
	})
}

func (d *Dispatcher) handleToolsList(req *JSONRPCRequest, authResult *auth.Result) *JSONRPCResponse {
	tools := d.registry.ListTools(authResult)
	infos := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		infos = append(infos, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: marshalSchema(t.InputSchema),
		})
	}
	return newResult(req.ID, &ListToolsResult{Tools: infos})
}

// handleToolsCall gates a tool call: existence, then scope, then input
// schema, then the handler. Scope is checked before schema so a caller
// without access learns nothing about the tool's argument shape.
func (d *Dispatcher) handleToolsCall(ctx context.Context, req *JSONRPCRequest, call *CallContext) *JSONRPCResponse {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return newError(req.ID, CodeInvalidParams, "invalid params: tool name required", nil)
	}

	tool, ok := d.registry.GetTool(params.Name)
	if !ok {
		return newError(req.ID, CodeMethodNotFound,
			fmt.Sprintf("tool not found: %s", params.Name), nil)
	}

	if !d.registry.Authorized(call.Auth, tool.RequiredScope) {
		return newError(req.ID, CodeInsufficientScope,
			fmt.Sprintf("insufficient scope: %s requires %s", params.Name, tool.RequiredScope), nil)
	}

	if tool.InputSchema != nil {
		args := params.Arguments
		if args == nil {
			args = map[string]any{}
		}
		if err := tool.InputSchema.VisitJSON(args); err != nil {
			return newError(req.ID, CodeInvalidParams,
				fmt.Sprintf("invalid arguments: %v", err), nil)
		}
	}

	result, err := tool.Handler(ctx, call, params.Arguments)
	if err != nil {
		d.logger.Error("tool handler failed", "tool", params.Name, "error", err)
		return newError(req.ID, CodeInternalError, "internal error", nil)
	}
	return newResult(req.ID, result)
}

func (d *Dispatcher) handleResourcesList(req *JSONRPCRequest, authResult *auth.Result) *JSONRPCResponse {
	resources := d.registry.ListResources(authResult)
	infos := make([]ResourceInfo, 0, len(resources))
	for _, r := range resources {
		infos = append(infos, ResourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MimeType:    r.MimeType,
		})
	}
	return newResult(req.ID, &ListResourcesResult{Resources: infos})
}

func (d *Dispatcher) handleResourceTemplatesList(req *JSONRPCRequest, authResult *auth.Result) *JSONRPCResponse {
	templates := d.registry.ListResourceTemplates(authResult)
	infos := make([]ResourceTemplateInfo, 0, len(templates))
	for _, rt := range templates {
		infos = append(infos, ResourceTemplateInfo{
			URITemplate: rt.URITemplate,
			Name:        rt.Name,
			Description: rt.Description,
			MimeType:    rt.MimeType,
		})
	}
	return newResult(req.ID, &ListResourceTemplatesResult{ResourceTemplates: infos})
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, req *JSONRPCRequest, call *CallContext) *JSONRPCResponse {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return newError(req.ID, CodeInvalidParams, "invalid params: uri required", nil)
	}

	requiredScope, handler, _, ok := d.registry.FindResource(params.URI)
	if !ok {
		return newError(req.ID, CodeResourceNotFound,
			fmt.Sprintf("resource not found: %s", params.URI), nil)
	}

	if !d.registry.Authorized(call.Auth, requiredScope) {
		return newError(req.ID, CodeInsufficientScope,
			fmt.Sprintf("insufficient scope: reading %s requires %s", params.URI, requiredScope), nil)
	}

	contents, err := handler(ctx, call, params.URI)
	if err != nil {
		// Template URIs can match entities that do not exist; handlers
		// report that with ErrResourceNotFound rather than a fault.
		if errors.Is(err, ErrResourceNotFound) {
			return newError(req.ID, CodeResourceNotFound,
				fmt.Sprintf("resource not found: %s", params.URI), nil)
		}
		d.logger.Error("resource handler failed", "uri", params.URI, "error", err)
		return newError(req.ID, CodeInternalError, "internal error", nil)
	}
	return newResult(req.ID, &ReadResourceResult{Contents: contents})
}

func (d *Dispatcher) handlePromptsList(req *JSONRPCRequest, authResult *auth.Result) *JSONRPCResponse {
	prompts := d.registry.ListPrompts(authResult)
	infos := make([]PromptInfo, 0, len(prompts))
	for _, p := range prompts {
		infos = append(infos, PromptInfo{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   p.Arguments,
		})
	}
	return newResult(req.ID, &ListPromptsResult{Prompts: infos})
}

func (d *Dispatcher) handlePromptsGet(ctx context.Context, req *JSONRPCRequest, call *CallContext) *JSONRPCResponse {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return newError(req.ID, CodeInvalidParams, "invalid params: prompt name required", nil)
	}

	prompt, ok := d.registry.GetPrompt(params.Name)
	if !ok {
		return newError(req.ID, CodeInvalidParams,
			fmt.Sprintf("unknown prompt: %s", params.Name), nil)
	}

	if !d.registry.Authorized(call.Auth, prompt.RequiredScope) {
		return newError(req.ID, CodeInsufficientScope,
			fmt.Sprintf("insufficient scope: %s requires %s", params.Name, prompt.RequiredScope), nil)
	}

	for _, arg := range prompt.Arguments {
		if arg.Required {
			if _, ok := params.Arguments[arg.Name]; !ok {
				return newError(req.ID, CodeInvalidParams,
					fmt.Sprintf("missing required argument: %s", arg.Name), nil)
			}
		}
	}

	result, err := prompt.Handler(ctx, call, params.Arguments)
	if err != nil {
		d.logger.Error("prompt handler failed", "prompt", params.Name, "error", err)
		return newError(req.ID, CodeInternalError, "internal error", nil)
	}
	return newResult(req.ID, result)
}

// emptyObjectSchema is advertised for tools that take no arguments.
var emptyObjectSchema = json.RawMessage(`{"type":"object"}`)

// marshalSchema renders a tool's input schema for tools/list.
func marshalSchema(s *openapi3.Schema) json.RawMessage {
	if s == nil {
		return emptyObjectSchema
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return emptyObjectSchema
	}
	return data
}

// ABOUTME: JSON-RPC 2.0 envelope types and protocol result shapes for the MCP endpoint
// ABOUTME: Defines the wire-level error taxonomy including auth-specific application codes

package mcp

import (
	"encoding/json"
	"fmt"
)

// Supported MCP protocol versions
var supportedProtocolVersions = map[string]bool{
	"2025-03-26": true,
	"2025-06-18": true,
}

// latestProtocolVersion is the version we advertise when the client's
// declared version is unsupported or absent.
const latestProtocolVersion = "2025-06-18"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// MaxBatchSize bounds the number of envelopes in one batch.
const MaxBatchSize = 10

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request or notification.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the envelope omits an id (or carries
// an explicit null), which per JSON-RPC 2.0 means no response entry
// may be produced for it.
func (r *JSONRPCRequest) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Application error codes. Authorization failures get their own code so
// they are never confusable with not-found or bad-params conditions.
const (
	CodeAuthRequired      = -32001
	CodeResourceNotFound  = -32002
	CodeInsufficientScope = -32003
)

// Protocol method names
const (
	MethodInitialize             = "initialize"
	MethodPing                   = "ping"
	MethodToolsList              = "tools/list"
	MethodToolsCall              = "tools/call"
	MethodResourcesList          = "resources/list"
	MethodResourcesTemplatesList = "resources/templates/list"
	MethodResourcesRead          = "resources/read"
	MethodPromptsList            = "prompts/list"
	MethodPromptsGet             = "prompts/get"
)

// newResult builds a success response echoing the request id.
func newResult(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

// newError builds an error response echoing the request id.
func newError(id json.RawMessage, code int, message string, data any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      normalizeID(id),
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	}
}

// normalizeID maps an absent id to an explicit null so error envelopes
// always carry the id member.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// MCP result types

// Implementation identifies the server in initialize responses.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// capabilityFlags advertises listChanged support for one capability kind.
type capabilityFlags struct {
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities is the capability manifest returned by initialize.
type ServerCapabilities struct {
	Tools     *capabilityFlags `json:"tools,omitempty"`
	Resources *capabilityFlags `json:"resources,omitempty"`
	Prompts   *capabilityFlags `json:"prompts,omitempty"`
}

// InitializeResult is the result for initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// Content represents content in a tool or prompt result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewTextContent creates text content.
func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// CallToolResult is the result for tools/call. IsError marks a domain
// failure: the call was attempted and failed for a business reason, as
// opposed to a protocol-level error where it could not be attempted.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// NewTextResult builds a successful tool result with one text block.
func NewTextResult(text string) *CallToolResult {
	return &CallToolResult{Content: []Content{NewTextContent(text)}}
}

// NewErrorResult builds a domain-failure tool result.
func NewErrorResult(format string, args ...any) *CallToolResult {
	return &CallToolResult{
		Content: []Content{NewTextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}

// ToolInfo describes a tool in tools/list results.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []ToolInfo `json:"tools"`
}

// ResourceInfo describes a resource in resources/list results.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult is the result for resources/list.
type ListResourcesResult struct {
	Resources []ResourceInfo `json:"resources"`
}

// ResourceTemplateInfo describes a resource template.
type ResourceTemplateInfo struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourceTemplatesResult is the result for resources/templates/list.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplateInfo `json:"resourceTemplates"`
}

// ResourceContents is one content block in a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ReadResourceResult is the result for resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// PromptArgument describes one argument a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptInfo describes a prompt in prompts/list results.
type PromptInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsResult is the result for prompts/list.
type ListPromptsResult struct {
	Prompts []PromptInfo `json:"prompts"`
}

// PromptMessage is one message in a prompts/get result.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// GetPromptResult is the result for prompts/get.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

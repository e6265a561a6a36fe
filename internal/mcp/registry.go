// ABOUTME: Capability registry for tools, resources, resource templates, and prompts
// ABOUTME: Populated once at startup, immutable afterwards; listing is scope-filtered

package mcp

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/yosida95/uritemplate/v3"

	"github.com/townday/townday/internal/auth"
	"github.com/townday/townday/internal/scope"
)

// CallContext carries the per-call environment passed explicitly to
// capability handlers: the resolved caller identity and an opaque
// environment handle (storage etc.) supplied at server construction.
// It is immutable for the duration of the call.
type CallContext struct {
	Auth *auth.Result
	Env  any
}

// ToolHandler executes a tool call. Domain failures are reported via
// CallToolResult.IsError; a non-nil error means an internal fault and
// surfaces to the caller only as a generic internal error.
type ToolHandler func(ctx context.Context, call *CallContext, args map[string]any) (*CallToolResult, error)

// ResourceHandler produces the contents for a resource URI.
type ResourceHandler func(ctx context.Context, call *CallContext, uri string) ([]ResourceContents, error)

// PromptHandler renders a prompt with the given arguments.
type PromptHandler func(ctx context.Context, call *CallContext, args map[string]string) (*GetPromptResult, error)

// Tool is a callable capability with an optional required scope and an
// optional input schema validated before the handler runs.
type Tool struct {
	Name          string
	Description   string
	RequiredScope string // empty means public to any authenticated principal
	InputSchema   *openapi3.Schema
	Handler       ToolHandler
}

// Resource is a readable capability addressed by a fixed URI.
type Resource struct {
	URI           string
	Name          string
	Description   string
	MimeType      string
	RequiredScope string
	Handler       ResourceHandler
}

// ResourceTemplate is a readable capability addressed by a URI template.
type ResourceTemplate struct {
	URITemplate   string
	Name          string
	Description   string
	MimeType      string
	RequiredScope string
	Handler       ResourceHandler

	tmpl *uritemplate.Template
}

// Prompt is a parameterized prompt capability.
type Prompt struct {
	Name          string
	Description   string
	Arguments     []PromptArgument
	RequiredScope string
	Handler       PromptHandler
}

// Registry holds every registered capability. Registration happens
// once at process start, before the registry is handed to the
// dispatcher; after that it is read-only and needs no locking.
// Listing order is registration order, stable across calls.
type Registry struct {
	catalog *scope.Catalog

	tools     map[string]*Tool
	toolOrder []string

	resources     map[string]*Resource
	resourceOrder []string

	templates []*ResourceTemplate

	prompts     map[string]*Prompt
	promptOrder []string
}

// NewRegistry creates an empty registry validating required scopes
// against the given catalog.
func NewRegistry(catalog *scope.Catalog) *Registry {
	return &Registry{
		catalog:   catalog,
		tools:     make(map[string]*Tool),
		resources: make(map[string]*Resource),
		prompts:   make(map[string]*Prompt),
	}
}

// checkScope rejects required scopes outside the catalog at
// registration time, so an unknown scope never reaches request time.
func (r *Registry) checkScope(kind, name, required string) error {
	if required != "" && !r.catalog.Known(required) {
		return fmt.Errorf("%s %q requires unknown scope %q", kind, name, required)
	}
	return nil
}

// RegisterTool adds a tool. Duplicate names and unknown scopes are
// errors; callers treat them as fatal at startup.
func (r *Registry) RegisterTool(t *Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool with empty name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("duplicate tool %q", t.Name)
	}
	if err := r.checkScope("tool", t.Name, t.RequiredScope); err != nil {
		return err
	}
	r.tools[t.Name] = t
	r.toolOrder = append(r.toolOrder, t.Name)
	return nil
}

// RegisterResource adds a fixed-URI resource.
func (r *Registry) RegisterResource(res *Resource) error {
	if res.URI == "" {
		return fmt.Errorf("resource with empty URI")
	}
	if res.Handler == nil {
		return fmt.Errorf("resource %q has no handler", res.URI)
	}
	if _, exists := r.resources[res.URI]; exists {
		return fmt.Errorf("duplicate resource %q", res.URI)
	}
	if err := r.checkScope("resource", res.URI, res.RequiredScope); err != nil {
		return err
	}
	r.resources[res.URI] = res
	r.resourceOrder = append(r.resourceOrder, res.URI)
	return nil
}

// RegisterResourceTemplate adds a URI-template resource.
func (r *Registry) RegisterResourceTemplate(rt *ResourceTemplate) error {
	if rt.URITemplate == "" {
		return fmt.Errorf("resource template with empty URI template")
	}
	if rt.Handler == nil {
		return fmt.Errorf("resource template %q has no handler", rt.URITemplate)
	}
	for _, existing := range r.templates {
		if existing.URITemplate == rt.URITemplate {
			return fmt.Errorf("duplicate resource template %q", rt.URITemplate)
		}
	}
	if err := r.checkScope("resource template", rt.URITemplate, rt.RequiredScope); err != nil {
		return err
	}
	tmpl, err := uritemplate.New(rt.URITemplate)
	if err != nil {
		return fmt.Errorf("parsing resource template %q: %w", rt.URITemplate, err)
	}
	rt.tmpl = tmpl
	r.templates = append(r.templates, rt)
	return nil
}

// RegisterPrompt adds a prompt.
func (r *Registry) RegisterPrompt(p *Prompt) error {
	if p.Name == "" {
		return fmt.Errorf("prompt with empty name")
	}
	if p.Handler == nil {
		return fmt.Errorf("prompt %q has no handler", p.Name)
	}
	if _, exists := r.prompts[p.Name]; exists {
		return fmt.Errorf("duplicate prompt %q", p.Name)
	}
	if err := r.checkScope("prompt", p.Name, p.RequiredScope); err != nil {
		return err
	}
	r.prompts[p.Name] = p
	r.promptOrder = append(r.promptOrder, p.Name)
	return nil
}

// Authorized reports whether the resolved principal may access a
// capability gated by the given scope. A nil required scope (empty
// string) passes for any authenticated principal. Session principals
// (nil scope set) bypass scope arithmetic entirely. An unknown
// required scope fails closed; registration already rejects those,
// so this is a backstop.
func (r *Registry) Authorized(res *auth.Result, required string) bool {
	if required == "" {
		return true
	}
	if res == nil {
		return false
	}
	if res.Session() {
		return true
	}
	return r.catalog.Allows(res.Scopes, required)
}

// GetTool returns a registered tool by name.
func (r *Registry) GetTool(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// GetPrompt returns a registered prompt by name.
func (r *Registry) GetPrompt(name string) (*Prompt, bool) {
	p, ok := r.prompts[name]
	return p, ok
}

// FindResource resolves a URI to a fixed resource or, failing that,
// the first registered template that matches it. The bool reports
// whether anything matched.
func (r *Registry) FindResource(uri string) (requiredScope string, handler ResourceHandler, mimeType string, ok bool) {
	if res, exists := r.resources[uri]; exists {
		return res.RequiredScope, res.Handler, res.MimeType, true
	}
	for _, rt := range r.templates {
		if rt.tmpl.Match(uri) != nil {
			return rt.RequiredScope, rt.Handler, rt.MimeType, true
		}
	}
	return "", nil, "", false
}

// ListTools returns the tools visible to the principal, in
// registration order.
func (r *Registry) ListTools(res *auth.Result) []*Tool {
	out := make([]*Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		t := r.tools[name]
		if r.Authorized(res, t.RequiredScope) {
			out = append(out, t)
		}
	}
	return out
}

// ListResources returns the fixed resources visible to the principal.
func (r *Registry) ListResources(res *auth.Result) []*Resource {
	out := make([]*Resource, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		rs := r.resources[uri]
		if r.Authorized(res, rs.RequiredScope) {
			out = append(out, rs)
		}
	}
	return out
}

// ListResourceTemplates returns the templates visible to the principal.
func (r *Registry) ListResourceTemplates(res *auth.Result) []*ResourceTemplate {
	out := make([]*ResourceTemplate, 0, len(r.templates))
	for _, rt := range r.templates {
		if r.Authorized(res, rt.RequiredScope) {
			out = append(out, rt)
		}
	}
	return out
}

// ListPrompts returns the prompts visible to the principal.
func (r *Registry) ListPrompts(res *auth.Result) []*Prompt {
	out := make([]*Prompt, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		p := r.prompts[name]
		if r.Authorized(res, p.RequiredScope) {
			out = append(out, p)
		}
	}
	return out
}

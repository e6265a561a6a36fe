// ABOUTME: Tests for capability registration and scope-based authorization
// ABOUTME: Duplicate and unknown-scope registrations must fail at startup

package mcp

import (
	"context"
	"testing"

	"github.com/townday/townday/internal/auth"
	"github.com/townday/townday/internal/scope"
)

func noopTool(name, requiredScope string) *Tool {
	return &Tool{
		Name:          name,
		RequiredScope: requiredScope,
		Handler: func(context.Context, *CallContext, map[string]any) (*CallToolResult, error) {
			return NewTextResult("ok"), nil
		},
	}
}

func TestRegistry_DuplicateToolFails(t *testing.T) {
	reg := NewRegistry(scope.PlatformCatalog())

	if err := reg.RegisterTool(noopTool("dup", "")); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := reg.RegisterTool(noopTool("dup", "")); err == nil {
		t.Error("duplicate registration succeeded, want error")
	}
}

func TestRegistry_UnknownScopeFails(t *testing.T) {
	reg := NewRegistry(scope.PlatformCatalog())

	if err := reg.RegisterTool(noopTool("bad", "read:unicorns")); err == nil {
		t.Error("unknown required scope accepted, want error")
	}
}

func TestRegistry_MissingHandlerFails(t *testing.T) {
	reg := NewRegistry(scope.PlatformCatalog())

	if err := reg.RegisterTool(&Tool{Name: "nohandler"}); err == nil {
		t.Error("tool without handler accepted, want error")
	}
	if err := reg.RegisterPrompt(&Prompt{Name: "nohandler"}); err == nil {
		t.Error("prompt without handler accepted, want error")
	}
}

func TestRegistry_ListingPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry(scope.PlatformCatalog())

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		if err := reg.RegisterTool(noopTool(name, "")); err != nil {
			t.Fatalf("registering %s: %v", name, err)
		}
	}

	listed := reg.ListTools(sessionAuth())
	if len(listed) != len(names) {
		t.Fatalf("got %d tools, want %d", len(listed), len(names))
	}
	for i, tool := range listed {
		if tool.Name != names[i] {
			t.Errorf("listed[%d] = %q, want %q", i, tool.Name, names[i])
		}
	}
}

func TestRegistry_Authorized(t *testing.T) {
	reg := NewRegistry(scope.PlatformCatalog())

	tests := []struct {
		name     string
		auth     authArg
		required string
		want     bool
	}{
		{"empty required always passes", authArg{token: []string{}}, "", true},
		{"nil auth fails gated", authArg{nilAuth: true}, scope.ReadEvents, false},
		{"session bypasses scopes", authArg{session: true}, scope.Admin, true},
		{"direct grant", authArg{token: []string{scope.ReadEvents}}, scope.ReadEvents, true},
		{"implied grant", authArg{token: []string{scope.WriteEvents}}, scope.ReadEvents, true},
		{"admin closure", authArg{token: []string{scope.Admin}}, scope.ReadRSVPs, true},
		{"missing scope", authArg{token: []string{scope.ReadGroups}}, scope.ReadEvents, false},
		{"empty token scopes", authArg{token: []string{}}, scope.ReadEvents, false},
		{"unknown required fails closed", authArg{session: false, token: []string{scope.Admin}}, "read:unicorns", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Authorized(tt.auth.result(), tt.required)
			if got != tt.want {
				t.Errorf("Authorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

type authArg struct {
	nilAuth bool
	session bool
	token   []string
}

func (a authArg) result() *auth.Result {
	switch {
	case a.nilAuth:
		return nil
	case a.session:
		return sessionAuth()
	default:
		return tokenAuth(a.token...)
	}
}

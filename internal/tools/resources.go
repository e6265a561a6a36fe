// ABOUTME: MCP resources: fixed profile resource and the event resource template
// ABOUTME: URIs use the townday:// scheme

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/townday/townday/internal/mcp"
	"github.com/townday/townday/internal/scope"
	"github.com/townday/townday/internal/store"
)

const (
	profileResourceURI   = "townday://profile"
	eventResourceTmpl    = "townday://events/{event_id}"
	eventResourcePrefix  = "townday://events/"
	resourceJSONMimeType = "application/json"
)

func profileResource() *mcp.Resource {
	return &mcp.Resource{
		URI:           profileResourceURI,
		Name:          "profile",
		Description:   "The authenticated caller's profile",
		MimeType:      resourceJSONMimeType,
		RequiredScope: scope.ReadProfile,
		Handler:       handleProfileResource,
	}
}

func handleProfileResource(_ context.Context, call *mcp.CallContext, uri string) ([]mcp.ResourceContents, error) {
	u := call.Auth.User
	data, err := json.Marshal(profileView{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		MemberSince: u.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}
	return []mcp.ResourceContents{{
		URI:      uri,
		MimeType: resourceJSONMimeType,
		Text:     string(data),
	}}, nil
}

func eventResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		URITemplate:   eventResourceTmpl,
		Name:          "event",
		Description:   "A single event addressed by id",
		MimeType:      resourceJSONMimeType,
		RequiredScope: scope.ReadEvents,
		Handler:       handleEventResource,
	}
}

func handleEventResource(ctx context.Context, call *mcp.CallContext, uri string) ([]mcp.ResourceContents, error) {
	env := envFrom(call)

	eventID := strings.TrimPrefix(uri, eventResourcePrefix)
	e, err := env.Store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, mcp.ErrResourceNotFound
		}
		return nil, err
	}

	data, err := json.Marshal(viewEvent(e))
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}
	return []mcp.ResourceContents{{
		URI:      uri,
		MimeType: resourceJSONMimeType,
		Text:     string(data),
	}}, nil
}

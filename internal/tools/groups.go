// ABOUTME: Group tools: listing, lookup, and creation

package tools

import (
	"context"
	"errors"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	"github.com/townday/townday/internal/mcp"
	"github.com/townday/townday/internal/scope"
	"github.com/townday/townday/internal/store"
)

type groupView struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func viewGroup(g *store.Group) groupView {
	return groupView{ID: g.ID, Slug: g.Slug, Name: g.Name, Description: g.Description}
}

func groupsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "groups_list",
		Description:   "List all community groups",
		RequiredScope: scope.ReadGroups,
		Handler:       handleGroupsList,
	}
}

func handleGroupsList(ctx context.Context, call *mcp.CallContext, _ map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)

	groups, err := env.Store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, viewGroup(g))
	}
	return jsonResult(map[string]any{"groups": views})
}

func groupsGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "groups_get",
		Description:   "Fetch one group by id, including its upcoming events",
		RequiredScope: scope.ReadGroups,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("group_id", withDescription(openapi3.NewStringSchema(), "Group id")).
			WithRequired([]string{"group_id"}),
		Handler: handleGroupsGet,
	}
}

func handleGroupsGet(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)
	groupID := argString(args, "group_id")

	g, err := env.Store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewErrorResult("group not found: %s", groupID), nil
		}
		return nil, err
	}

	events, err := env.Store.ListEvents(ctx, store.EventFilter{
		GroupID: groupID,
		After:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	upcoming := make([]eventView, 0, len(events))
	for _, e := range events {
		upcoming = append(upcoming, viewEvent(e))
	}

	return jsonResult(map[string]any{
		"group":           viewGroup(g),
		"upcoming_events": upcoming,
	})
}

func groupsCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "groups_create",
		Description:   "Create a new community group",
		RequiredScope: scope.WriteGroups,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("slug", withDescription(openapi3.NewStringSchema().WithMinLength(1), "URL-safe short name")).
			WithProperty("name", openapi3.NewStringSchema().WithMinLength(1)).
			WithProperty("description", openapi3.NewStringSchema()).
			WithRequired([]string{"slug", "name"}),
		Handler: handleGroupsCreate,
	}
}

func handleGroupsCreate(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)

	g := &store.Group{
		ID:          uuid.New().String(),
		Slug:        argString(args, "slug"),
		Name:        argString(args, "name"),
		Description: argString(args, "description"),
		CreatedAt:   time.Now().UTC(),
	}
	if err := env.Store.CreateGroup(ctx, g); err != nil {
		return nil, err
	}

	env.Logger.Info("group created", "group_id", g.ID, "slug", g.Slug, "user_id", call.Auth.User.ID)
	return jsonResult(map[string]any{"group": viewGroup(g)})
}

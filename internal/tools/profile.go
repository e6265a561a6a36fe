// ABOUTME: Caller-facing identity tools: whoami, profile read and update, badges

package tools

import (
	"context"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/townday/townday/internal/mcp"
	"github.com/townday/townday/internal/scope"
)

type profileView struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	MemberSince string `json:"member_since"`
}

// whoamiTool is the one ungated tool: any authenticated principal can
// ask who it is and how it authenticated.
func whoamiTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "whoami",
		Description: "Report the authenticated caller's identity and auth method",
		Handler:     handleWhoami,
	}
}

func handleWhoami(_ context.Context, call *mcp.CallContext, _ map[string]any) (*mcp.CallToolResult, error) {
	out := map[string]any{
		"user_id":     call.Auth.User.ID,
		"handle":      call.Auth.User.Handle,
		"auth_method": string(call.Auth.Method),
	}
	if call.Auth.Session() {
		out["scopes"] = "all (session)"
	} else {
		out["scopes"] = call.Auth.Scopes
	}
	return jsonResult(out)
}

func profileGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "profile_get",
		Description:   "Fetch the caller's profile",
		RequiredScope: scope.ReadProfile,
		Handler:       handleProfileGet,
	}
}

func handleProfileGet(_ context.Context, call *mcp.CallContext, _ map[string]any) (*mcp.CallToolResult, error) {
	u := call.Auth.User
	return jsonResult(map[string]any{"profile": profileView{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		MemberSince: u.CreatedAt.Format(time.RFC3339),
	}})
}

func profileUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "profile_update",
		Description:   "Update the caller's display name or email",
		RequiredScope: scope.WriteProfile,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("display_name", openapi3.NewStringSchema()).
			WithProperty("email", openapi3.NewStringSchema()),
		Handler: handleProfileUpdate,
	}
}

func handleProfileUpdate(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)
	u := call.Auth.User

	displayName := argString(args, "display_name")
	email := argString(args, "email")
	if displayName == "" && email == "" {
		return mcp.NewErrorResult("nothing to update: provide display_name or email"), nil
	}
	if displayName == "" {
		displayName = u.DisplayName
	}
	if email == "" {
		email = u.Email
	}

	if err := env.Store.UpdateUserProfile(ctx, u.ID, displayName, email); err != nil {
		return nil, err
	}

	env.Logger.Info("profile updated", "user_id", u.ID)
	return jsonResult(map[string]any{"profile": profileView{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: displayName,
		Email:       email,
		MemberSince: u.CreatedAt.Format(time.RFC3339),
	}})
}

func badgesListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "badges_list",
		Description:   "List all badges and which ones the caller has earned",
		RequiredScope: scope.ReadBadges,
		Handler:       handleBadgesList,
	}
}

func handleBadgesList(ctx context.Context, call *mcp.CallContext, _ map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)

	badges, err := env.Store.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	awards, err := env.Store.ListBadgeAwards(ctx, call.Auth.User.ID)
	if err != nil {
		return nil, err
	}
	earned := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		earned[a.BadgeID] = a.AwardedAt
	}

	type badgeView struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		EarnedAt    string `json:"earned_at,omitempty"`
	}
	views := make([]badgeView, 0, len(badges))
	for _, b := range badges {
		v := badgeView{Slug: b.Slug, Name: b.Name, Description: b.Description}
		if at, ok := earned[b.ID]; ok {
			v.EarnedAt = at.Format(time.RFC3339)
		}
		views = append(views, v)
	}
	return jsonResult(map[string]any{"badges": views})
}

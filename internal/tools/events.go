// ABOUTME: Event tools: listing, lookup, creation, and RSVP handling
// ABOUTME: Capacity overflow diverts yes-RSVPs to the waitlist

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

// eventView is the wire shape for events in tool results.
type eventView struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
}

func viewEvent(e *store.Event) eventView {
	return eventView{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		Capacity:    e.Capacity,
		StartsAt:    e.StartsAt.Format(time.RFC3339),
		EndsAt:      e.EndsAt.Format(time.RFC3339),
	}
}

func eventsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "events_list",
		Description:   "List upcoming events, optionally filtered by group and start time",
		RequiredScope: scope.ReadEvents,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("group_id", withDescription(openapi3.NewStringSchema(), "Only events hosted by this group")).
			WithProperty("after", withDescription(openapi3.NewStringSchema(), "Only events starting at or after this RFC 3339 timestamp")).
			WithProperty("limit", withDescription(openapi3.NewIntegerSchema().WithMin(1).WithMax(100), "Maximum number of events to return")),
		Handler: handleEventsList,
	}
}

func handleEventsList(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)

	filter := store.EventFilter{
		GroupID: argString(args, "group_id"),
		Limit:   argInt(args, "limit"),
	}
	if after := argString(args, "after"); after != "" {
		t, err := time.Parse(time.RFC3339, after)
		if err != nil {
			return mcp.NewErrorResult("invalid after timestamp: %v", err), nil
		}
		filter.After = t
	}

	events, err := env.Store.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, viewEvent(e))
	}
	return jsonResult(map[string]any{"events": views})
}

func eventsGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "events_get",
		Description:   "Fetch one event by id, including its RSVP counts",
		RequiredScope: scope.ReadEvents,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("event_id", withDescription(openapi3.NewStringSchema(), "Event id")).
			WithRequired([]string{"event_id"}),
		Handler: handleEventsGet,
	}
}

func handleEventsGet(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)
	eventID := argString(args, "event_id")

	e, err := env.Store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewErrorResult("event not found: %s", eventID), nil
		}
		return nil, err
	}

	rsvps, err := env.Store.ListRSVPs(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, r := range rsvps {
		counts[r.Status]++
	}

	return jsonResult(map[string]any{
		"event": viewEvent(e),
		"rsvps": counts,
	})
}

func eventsCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "events_create",
		Description:   "Create a new event hosted by a group",
		RequiredScope: scope.WriteEvents,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("group_id", withDescription(openapi3.NewStringSchema(), "Hosting group id")).
			WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
			WithProperty("description", openapi3.NewStringSchema()).
			WithProperty("venue", openapi3.NewStringSchema()).
			WithProperty("capacity", withDescription(openapi3.NewIntegerSchema().WithMin(0), "Maximum yes-RSVPs; 0 means unlimited")).
			WithProperty("starts_at", withDescription(openapi3.NewStringSchema(), "RFC 3339 start time")).
			WithProperty("ends_at", withDescription(openapi3.NewStringSchema(), "RFC 3339 end time")).
			WithRequired([]string{"group_id", "title", "starts_at", "ends_at"}),
		Handler: handleEventsCreate,
	}
}

func handleEventsCreate(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)

	groupID := argString(args, "group_id")
	if _, err := env.Store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewErrorResult("group not found: %s", groupID), nil
		}
		return nil, err
	}

	startsAt, err := time.Parse(time.RFC3339, argString(args, "starts_at"))
	if err != nil {
		return mcp.NewErrorResult("invalid starts_at: %v", err), nil
	}
	endsAt, err := time.Parse(time.RFC3339, argString(args, "ends_at"))
	if err != nil {
		return mcp.NewErrorResult("invalid ends_at: %v", err), nil
	}
	if !endsAt.After(startsAt) {
		return mcp.NewErrorResult("ends_at must be after starts_at"), nil
	}

	e := &store.Event{
		ID:          uuid.New().String(),
		GroupID:     groupID,
		Title:       argString(args, "title"),
		Description: argString(args, "description"),
		Venue:       argString(args, "venue"),
		Capacity:    argInt(args, "capacity"),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := env.Store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	env.Logger.Info("event created", "event_id", e.ID, "group_id", e.GroupID, "user_id", call.Auth.User.ID)
	return jsonResult(map[string]any{"event": viewEvent(e)})
}

func eventsRSVPTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "events_rsvp",
		Description:   "Set the caller's RSVP for an event; full events divert yes to the waitlist",
		RequiredScope: scope.WriteRSVPs,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("event_id", withDescription(openapi3.NewStringSchema(), "Event id")).
			WithProperty("status", withDescription(openapi3.NewStringSchema().
				WithEnum(store.RSVPYes, store.RSVPNo, store.RSVPWaitlist),
				"Attendance intent; defaults to yes")).
			WithRequired([]string{"event_id"}),
		Handler: handleEventsRSVP,
	}
}

func handleEventsRSVP(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)
	eventID := argString(args, "event_id")

	e, err := env.Store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewErrorResult("event not found: %s", eventID), nil
		}
		return nil, err
	}

	status := argString(args, "status")
	if status == "" {
		status = store.RSVPYes
	}

	// A yes-RSVP against a full event lands on the waitlist instead of
	// failing, so agents do not need a separate capacity probe.
	if status == store.RSVPYes && e.Capacity > 0 {
		existing, err := env.Store.ListRSVPs(ctx, eventID)
		if err != nil {
			return nil, err
		}
		yes := 0
		for _, r := range existing {
			if r.Status == store.RSVPYes && r.UserID != call.Auth.User.ID {
				yes++
			}
		}
		if yes >= e.Capacity {
			status = store.RSVPWaitlist
		}
	}

	r := &store.RSVP{
		EventID:   eventID,
		UserID:    call.Auth.User.ID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := env.Store.SetRSVP(ctx, r); err != nil {
		return nil, err
	}

	env.Logger.Info("rsvp recorded", "event_id", eventID, "user_id", r.UserID, "status", status)
	return jsonResult(map[string]any{
		"event_id": eventID,
		"status":   status,
	})
}

func rsvpsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:          "rsvps_list",
		Description:   "List RSVPs for an event",
		RequiredScope: scope.ReadRSVPs,
		InputSchema: openapi3.NewObjectSchema().
			WithProperty("event_id", withDescription(openapi3.NewStringSchema(), "Event id")).
			WithRequired([]string{"event_id"}),
		Handler: handleRSVPsList,
	}
}

func handleRSVPsList(ctx context.Context, call *mcp.CallContext, args map[string]any) (*mcp.CallToolResult, error) {
	env := envFrom(call)
	eventID := argString(args, "event_id")

	if _, err := env.Store.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewErrorResult("event not found: %s", eventID), nil
		}
		return nil, err
	}

	rsvps, err := env.Store.ListRSVPs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	type rsvpView struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	views := make([]rsvpView, 0, len(rsvps))
	for _, r := range rsvps {
		views = append(views, rsvpView{UserID: r.UserID, Status: r.Status})
	}
	return jsonResult(map[string]any{"event_id": eventID, "rsvps": views})
}

// ABOUTME: MCP prompts: reusable agent instructions for event planning and digests

package tools

import (
	"context"
	"fmt"

	"github.com/townday/townday/internal/mcp"
	"github.com/townday/townday/internal/scope"
)

func planEventPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:          "plan_event",
		Description:   "Walk through planning and creating a community event",
		RequiredScope: scope.WriteEvents,
		Arguments: []mcp.PromptArgument{
			{Name: "topic", Description: "What the event is about", Required: true},
			{Name: "group", Description: "Hosting group name or id"},
		},
		Handler: handlePlanEvent,
	}
}

func handlePlanEvent(_ context.Context, _ *mcp.CallContext, args map[string]string) (*mcp.GetPromptResult, error) {
	topic := args["topic"]
	group := args["group"]

	text := fmt.Sprintf(
		"Help me plan a community event about %q. "+
			"Use groups_list to find a suitable hosting group, "+
			"propose a title, description, venue, and schedule, "+
			"then create it with events_create once I confirm.", topic)
	if group != "" {
		text = fmt.Sprintf(
			"Help me plan a community event about %q hosted by %q. "+
				"Use groups_get to check the group's upcoming events for conflicts, "+
				"propose a title, description, venue, and schedule, "+
				"then create it with events_create once I confirm.", topic, group)
	}

	return &mcp.GetPromptResult{
		Description: "Event planning assistant",
		Messages: []mcp.PromptMessage{
			{Role: "user", Content: mcp.NewTextContent(text)},
		},
	}, nil
}

func eventDigestPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:          "event_digest",
		Description:   "Summarize upcoming events for the caller",
		RequiredScope: scope.ReadEvents,
		Arguments: []mcp.PromptArgument{
			{Name: "days", Description: "How many days ahead to cover; defaults to 7"},
		},
		Handler: handleEventDigest,
	}
}

func handleEventDigest(_ context.Context, _ *mcp.CallContext, args map[string]string) (*mcp.GetPromptResult, error) {
	days := args["days"]
	if days == "" {
		days = "7"
	}

	text := fmt.Sprintf(
		"Summarize the community events coming up in the next %s days. "+
			"Use events_list to fetch them, group the summary by hosting group, "+
			"and flag anything I have RSVP'd yes to via rsvps_list.", days)

	return &mcp.GetPromptResult{
		Description: "Upcoming events digest",
		Messages: []mcp.PromptMessage{
			{Role: "user", Content: mcp.NewTextContent(text)},
		},
	}, nil
}

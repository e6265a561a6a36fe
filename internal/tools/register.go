// ABOUTME: Registers every platform capability with the MCP registry
// ABOUTME: Registration order here is the order clients see in listings

package tools

import (
	"fmt"

	"github.com/townday/townday/internal/mcp"
)

// RegisterAll installs the platform's tools, resources, and prompts.
// Any failure is a wiring bug; callers treat it as fatal at startup.
func RegisterAll(reg *mcp.Registry) error {
	toolDefs := []*mcp.Tool{
		whoamiTool(),
		eventsListTool(),
		eventsGetTool(),
		eventsCreateTool(),
		eventsRSVPTool(),
		rsvpsListTool(),
		groupsListTool(),
		groupsGetTool(),
		groupsCreateTool(),
		profileGetTool(),
		profileUpdateTool(),
		badgesListTool(),
	}
	for _, t := range toolDefs {
		if err := reg.RegisterTool(t); err != nil {
			return fmt.Errorf("registering tools: %w", err)
		}
	}

	if err := reg.RegisterResource(profileResource()); err != nil {
		return fmt.Errorf("registering resources: %w", err)
	}
	if err := reg.RegisterResourceTemplate(eventResourceTemplate()); err != nil {
		return fmt.Errorf("registering resource templates: %w", err)
	}

	for _, p := range []*mcp.Prompt{planEventPrompt(), eventDigestPrompt()} {
		if err := reg.RegisterPrompt(p); err != nil {
			return fmt.Errorf("registering prompts: %w", err)
		}
	}
	return nil
}

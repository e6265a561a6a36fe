// Package tools defines the platform capabilities exposed to agents:
// event, group, RSVP, profile, and badge tools, plus the profile
// resource, the per-event resource template, and the planning prompts.
//
// Handlers report domain failures (missing entities, conflicting
// state) through isError tool results; returned errors are reserved
// for faults and surface to callers only as generic internal errors.
package tools

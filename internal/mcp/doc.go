// Package mcp implements the JSON-RPC 2.0 agent endpoint.
//
// # Overview
//
// The package exposes the platform's tools, resources, resource
// templates, and prompts to AI agents over the Model Context Protocol
// (Streamable HTTP transport). A single POST /mcp endpoint accepts
// JSON-RPC envelopes, single or batched; the server keeps no session
// state, so every request carries and re-resolves its own credentials.
//
// # Components
//
//   - Registry: capability catalog populated once at startup; listing
//     is scope-filtered and preserves registration order
//   - Dispatcher: routes envelopes, gates calls by scope, validates
//     tool arguments against their schemas, contains handler panics
//   - Server: the HTTP transport; maps auth failures to JSON-RPC
//     error envelopes rather than HTTP status codes
//   - KeyedGate: per-principal token-bucket rate limiting
//
// # Error taxonomy
//
// Domain failures (an event that does not exist, an RSVP conflict)
// come back as successful tools/call responses with isError set.
// Protocol failures use JSON-RPC error envelopes: standard codes for
// parse, request-shape, method, and params problems, plus application
// codes -32001 (authentication required), -32002 (resource not found),
// and -32003 (insufficient scope). Internal faults are always reported
// as a bare -32603 with no detail.
//
// # Authorization
//
// Every capability may declare a required scope. Token principals are
// checked against the expanded closure of their granted scopes; session
// principals (browser cookies) bypass scope checks entirely. Scope is
// verified before argument validation so an unauthorized caller learns
// nothing about a tool's input shape.
package mcp

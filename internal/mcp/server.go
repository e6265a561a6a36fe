// ABOUTME: Streamable HTTP transport for the agent endpoint: single POST path, stateless
// ABOUTME: Auth failures map to JSON-RPC error envelopes, never to HTTP 401

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/townday/townday/internal/auth"
)

// AuthResolver resolves a request's credentials into a principal.
type AuthResolver interface {
	Resolve(r *http.Request) (*auth.Result, error)
}

// resolverAdapter adapts the concrete auth resolver, which takes a
// context plus request, to the transport's single-request surface.
type resolverAdapter struct {
	resolver *auth.Resolver
}

func (a resolverAdapter) Resolve(r *http.Request) (*auth.Result, error) {
	return a.resolver.Resolve(r.Context(), r)
}

// RateGate admits or rejects a request before dispatch. The key is a
// stable per-principal or per-source identifier.
type RateGate interface {
	Allow(key string) bool
}

// Config holds configuration for the MCP server.
type Config struct {
	Registry   *Registry
	Resolver   *auth.Resolver
	Env        any // handed opaquely to capability handlers
	Gate       RateGate
	ServerInfo Implementation
	Logger     *slog.Logger
}

// Server exposes the capability registry over Streamable HTTP. It is
// stateless: no session tracking, every request re-resolves auth.
type Server struct {
	dispatcher *Dispatcher
	resolve    AuthResolver
	gate       RateGate
	logger     *slog.Logger
}

// NewServer creates an MCP server from the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("auth resolver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	info := cfg.ServerInfo
	if info.Name == "" {
		info = Implementation{Name: "townday", Version: "1.0.0"}
	}

	return &Server{
		dispatcher: NewDispatcher(cfg.Registry, info, cfg.Env, logger),
		resolve:    resolverAdapter{resolver: cfg.Resolver},
		gate:       cfg.Gate,
		logger:     logger,
	}, nil
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.ServeHTTP)
}

// ServeHTTP routes by HTTP method. GET is rejected because we do not
// open server-initiated streams; DELETE succeeds as a no-op because
// there is no session state to terminate.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
//
// Credential handling: a request with no credentials at all proceeds
// with a nil principal, so initialize and ping still work and gated
// methods fail per-envelope. A request that presented a credential
// that failed to verify is rejected as a whole with a single auth
// error envelope, never by falling through to unauthenticated access.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeResponse(w, http.StatusOK, newError(nil, CodeParseError, "failed to read request body", nil))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.writeResponse(w, http.StatusOK, newError(nil, CodeInvalidRequest, "request body too large", nil))
		return
	}

	authResult, err := s.resolve.Resolve(r)
	if err != nil && !errors.Is(err, auth.ErrNoCredentials) {
		s.logger.Debug("credential rejected", "error", err)
		s.writeResponse(w, http.StatusOK, newError(nil, CodeAuthRequired, "authentication failed", nil))
		return
	}

	if s.gate != nil && !s.gate.Allow(gateKey(r, authResult)) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	responses, batch := s.dispatcher.DispatchBody(r.Context(), body, authResult)
	if responses == nil {
		// Notifications only: accepted, nothing to say.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if batch {
		s.writeResponse(w, http.StatusOK, responses)
		return
	}
	s.writeResponse(w, http.StatusOK, responses[0])
}

// gateKey picks the rate-limit key: the authenticated user when known,
// the remote address otherwise.
func gateKey(r *http.Request, authResult *auth.Result) string {
	if authResult != nil && authResult.User != nil {
		return "user:" + authResult.User.ID
	}
	return "addr:" + r.RemoteAddr
}

// writeResponse serializes a JSON-RPC payload. Status is always 200
// for protocol-level outcomes; HTTP status codes are reserved for
// transport concerns.
func (s *Server) writeResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

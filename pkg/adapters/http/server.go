// Package http exposes the trimming workflow to a View over HTTP.
//
// Every session is a stored WorkflowState (see pkg/session). The View posts
// gestures (node click, reason click, retrain, cancel) and renders the state
// returned by each call, or follows the SSE stream of state diffs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/treetrim"
	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/session"
	"github.com/aretw0/treetrim/pkg/snapshot"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// ParameterSource reports the hyperparameters of the model being trimmed.
type ParameterSource interface {
	Parameters(ctx context.Context, key string) (domain.Hyperparameters, error)
}

// Config wires the server dependencies.
type Config struct {
	Sessions *session.Manager
	Catalog  *catalog.Catalog

	// Parameters and Model back GET /parameters. Optional.
	Parameters ParameterSource
	Model      string

	// Streams must be the manager registered with session.OnChange for
	// GET /sessions/{id}/events to receive diffs.
	Streams *StreamManager

	// Metrics is served on GET /metrics when set.
	Metrics http.Handler

	Logger *slog.Logger
}

// Server holds the handlers.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Streams == nil {
		cfg.Streams = NewStreamManager(cfg.Logger)
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(validate)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/reasons", s.ListReasons)
	r.Get("/parameters", s.GetParameters)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/node", s.SelectNode)
			r.Post("/reason", s.SelectReason)
			r.Post("/retrain", s.ConfirmRetrain)
			r.Post("/cancel", s.Cancel)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>treetrim API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// StateResponse is the render model of a session.
type StateResponse struct {
	SessionID      string                      `json:"session_id"`
	Phase          domain.Phase                `json:"phase"`
	ActiveNode     *domain.NodeSnapshot        `json:"active_node,omitempty"`
	Summary        []string                    `json:"summary,omitempty"`
	OfferedReasons []domain.TrimReason         `json:"offered_reasons"`
	Trimmable      bool                        `json:"trimmable"`
	Staged         *domain.ParameterAdjustment `json:"staged,omitempty"`
	StagedReason   domain.ReasonID             `json:"staged_reason,omitempty"`
	RetrainEnabled bool                        `json:"retrain_enabled"`
}

func newStateResponse(id string, s domain.WorkflowState) StateResponse {
	resp := StateResponse{
		SessionID:      id,
		Phase:          s.Phase(),
		ActiveNode:     s.ActiveNode,
		OfferedReasons: s.OfferedReasons,
		Trimmable:      s.Trimmable(),
		Staged:         s.Staged,
		StagedReason:   s.StagedReason,
		RetrainEnabled: s.RetrainEnabled(),
	}
	if s.ActiveNode != nil {
		resp.Summary = s.ActiveNode.Summary()
	}
	if resp.OfferedReasons == nil {
		resp.OfferedReasons = []domain.TrimReason{}
	}
	return resp
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, domain.ErrUnknownReason):
		return http.StatusBadRequest, "unknown_reason"
	case errors.Is(err, domain.ErrInvalidSnapshot):
		return http.StatusBadRequest, "invalid_snapshot"
	case errors.Is(err, domain.ErrInapplicableReason):
		return http.StatusConflict, "inapplicable_reason"
	case errors.Is(err, domain.ErrNoActiveNode):
		return http.StatusConflict, "no_active_node"
	case errors.Is(err, domain.ErrNothingStaged):
		return http.StatusConflict, "nothing_staged"
	case errors.Is(err, domain.ErrRootNotTrimmable):
		return http.StatusConflict, "root_not_trimmable"
	case errors.Is(err, domain.ErrInvalidHyperparameters), errors.Is(err, domain.ErrUnknownParameter):
		return http.StatusUnprocessableEntity, "invalid_hyperparameters"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func sessionID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, chi.URLParam(r, "id"), &id)
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter id: %w", err)
	}
	return id, nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "treetrim-http",
		"version":     strings.TrimSpace(treetrim.Version),
		"api_version": apiVersion,
	})
}

// ListReasons handles the GET /reasons request.
func (s *Server) ListReasons(w http.ResponseWriter, r *http.Request) {
	var leaf *bool
	if err := runtime.BindQueryParameter("form", true, false, "leaf", r.URL.Query(), &leaf); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	reasons := s.cfg.Catalog.Reasons()
	if leaf != nil {
		reasons = s.cfg.Catalog.ReasonsFor(*leaf)
	}
	writeJSON(w, http.StatusOK, reasons)
}

// GetParameters handles the GET /parameters request.
func (s *Server) GetParameters(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Parameters == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no parameter source configured", Code: "not_configured"})
		return
	}
	params, err := s.cfg.Parameters.Parameters(r.Context(), s.cfg.Model)
	if err != nil {
		s.writeError(w, "GetParameters", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model":      s.cfg.Model,
		"parameters": params,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.cfg.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.cfg.Sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, newStateResponse(id, domain.WorkflowState{}))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	state, err := s.cfg.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(id, state))
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	if err := s.cfg.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectNode handles the POST /sessions/{id}/node request.
func (s *Server) SelectNode(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "bad_request"})
		return
	}
	node, err := snapshot.Decode(payload)
	if err != nil {
		s.writeError(w, "SelectNode", err)
		return
	}

	s.do(w, r, http.StatusOK, "SelectNode", func(ctx context.Context, c *workflow.Controller) error {
		return c.SelectNode(ctx, node)
	})
}

type reasonRequest struct {
	Reason domain.ReasonID `json:"reason"`
}

// SelectReason handles the POST /sessions/{id}/reason request.
func (s *Server) SelectReason(w http.ResponseWriter, r *http.Request) {
	var body reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "bad_request"})
		return
	}

	s.do(w, r, http.StatusOK, "SelectReason", func(ctx context.Context, c *workflow.Controller) error {
		return c.SelectReason(ctx, body.Reason)
	})
}

// ConfirmRetrain handles the POST /sessions/{id}/retrain request.
// It answers 202: the retrain keeps running after the response.
func (s *Server) ConfirmRetrain(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, http.StatusAccepted, "ConfirmRetrain", func(ctx context.Context, c *workflow.Controller) error {
		return c.ConfirmRetrain(ctx)
	})
}

// Cancel handles the POST /sessions/{id}/cancel request.
func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, http.StatusOK, "Cancel", func(ctx context.Context, c *workflow.Controller) error {
		c.Cancel(ctx)
		return nil
	})
}

func (s *Server) do(w http.ResponseWriter, r *http.Request, status int, op string, fn func(context.Context, *workflow.Controller) error) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	state, err := s.cfg.Sessions.Do(r.Context(), id, fn)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	writeJSON(w, status, newStateResponse(id, state))
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}
	var watch *string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	// The initial state is the first event, so the session must exist.
	state, err := s.cfg.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "SubscribeEvents", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	initial, err := initialEvent(id, state)
	if err != nil {
		http.Error(w, "encode initial state", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: encode initial state", "session_id", id, "err", err)
		return
	}

	ch, cancel := s.cfg.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()
	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", id)

	var watchList []string
	if watch != nil && *watch != "" {
		watchList = strings.Split(*watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// initialEvent encodes the full state of a session as its first diff.
// An idle state diffs to nothing, so the phase is always set.
func initialEvent(id string, state domain.WorkflowState) ([]byte, error) {
	first := domain.Diff(id, nil, &state)
	if first == nil {
		first = &domain.StateDiff{SessionID: id}
	}
	phase := state.Phase()
	first.Phase = &phase
	return json.Marshal(first)
}

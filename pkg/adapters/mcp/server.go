// Package mcp exposes trimming sessions as Model Context Protocol tools,
// so an agent can inspect nodes and stage trims the way the View does.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/treetrim"
	"github.com/aretw0/treetrim/internal/logging"
	"github.com/aretw0/treetrim/internal/workflow"
	"github.com/aretw0/treetrim/pkg/catalog"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/session"
	"github.com/aretw0/treetrim/pkg/snapshot"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const reasonsURI = "treetrim://reasons"

// StateResponse aligns with the HTTP render model.
type StateResponse struct {
	SessionID      string                      `json:"session_id" jsonschema_description:"Session the state belongs to"`
	Phase          domain.Phase                `json:"phase" jsonschema_description:"idle, inspecting or staged"`
	Summary        []string                    `json:"summary,omitempty" jsonschema_description:"Statistics of the active node"`
	OfferedReasons []domain.TrimReason         `json:"offered_reasons" jsonschema_description:"Reasons that can be selected for the active node"`
	Staged         *domain.ParameterAdjustment `json:"staged,omitempty" jsonschema_description:"Hyperparameter change awaiting confirmation"`
	StagedReason   domain.ReasonID             `json:"staged_reason,omitempty"`
	RetrainEnabled bool                        `json:"retrain_enabled" jsonschema_description:"Whether confirm_retrain is accepted"`
}

func newStateResponse(id string, s domain.WorkflowState) StateResponse {
	resp := StateResponse{
		SessionID:      id,
		Phase:          s.Phase(),
		OfferedReasons: s.OfferedReasons,
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

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog sets the catalog served by list_reasons. It should match the
// catalog given to the session manager's controllers.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		catalog:  catalog.Default(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("treetrim-mcp", strings.TrimSpace(treetrim.Version),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start an idle trimming session. Returns its state, including session_id."),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("select_node",
		mcp.WithDescription("Make a tree node the active node. Drops any staged change."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithObject("node", mcp.Required(),
			mcp.Description("Node payload as produced by the tree visualizer (node_depth, split, impurity, n_node_samples, node_class_counts, ...)")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectNode))

	s.mcpServer.AddTool(mcp.NewTool("select_reason",
		mcp.WithDescription("Stage the hyperparameter change for a trim reason on the active node."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Reason ID, see list_reasons")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectReason))

	s.mcpServer.AddTool(mcp.NewTool("confirm_retrain",
		mcp.WithDescription("Apply the staged change and retrain the model. The session returns to idle."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleConfirmRetrain))

	s.mcpServer.AddTool(mcp.NewTool("cancel",
		mcp.WithDescription("Drop the staged change and keep inspecting the active node."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleCancel))

	s.mcpServer.AddTool(mcp.NewTool("list_reasons",
		mcp.WithDescription("List the trim reasons and the nodes they apply to."),
		mcp.WithBoolean("leaf", mcp.Description("Only reasons for leaf (true) or internal (false) nodes")),
	), s.handleListReasons)
}

func (s *Server) handleCreateSession(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (StateResponse, error) {
	id, err := s.sessions.Create(ctx)
	if err != nil {
		return StateResponse{}, fmt.Errorf("create session: %w", err)
	}
	return newStateResponse(id, domain.WorkflowState{}), nil
}

func (s *Server) handleGetState(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	id, err := sessionArg(args)
	if err != nil {
		return StateResponse{}, err
	}
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return StateResponse{}, err
	}
	return newStateResponse(id, state), nil
}

func (s *Server) handleSelectNode(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	payload, err := nodeArg(args)
	if err != nil {
		return StateResponse{}, err
	}
	node, err := snapshot.Decode(payload)
	if err != nil {
		return StateResponse{}, err
	}
	return s.do(ctx, args, "select_node", func(ctx context.Context, c *workflow.Controller) error {
		return c.SelectNode(ctx, node)
	})
}

func (s *Server) handleSelectReason(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	reason, _ := args["reason"].(string)
	if reason == "" {
		return StateResponse{}, errors.New("reason is required")
	}
	return s.do(ctx, args, "select_reason", func(ctx context.Context, c *workflow.Controller) error {
		return c.SelectReason(ctx, domain.ReasonID(reason))
	})
}

func (s *Server) handleConfirmRetrain(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	return s.do(ctx, args, "confirm_retrain", func(ctx context.Context, c *workflow.Controller) error {
		return c.ConfirmRetrain(ctx)
	})
}

func (s *Server) handleCancel(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StateResponse, error) {
	return s.do(ctx, args, "cancel", func(ctx context.Context, c *workflow.Controller) error {
		c.Cancel(ctx)
		return nil
	})
}

func (s *Server) handleListReasons(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reasons := s.catalog.Reasons()
	if leaf, ok := request.GetArguments()["leaf"].(bool); ok {
		reasons = s.catalog.ReasonsFor(leaf)
	}
	data, err := json.Marshal(reasons)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode reasons: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) do(ctx context.Context, args map[string]any, op string, fn func(context.Context, *workflow.Controller) error) (StateResponse, error) {
	id, err := sessionArg(args)
	if err != nil {
		return StateResponse{}, err
	}
	state, err := s.sessions.Do(ctx, id, fn)
	if err != nil {
		s.logger.Debug("MCP tool rejected", "tool", op, "session_id", id, "err", err)
		return StateResponse{}, err
	}
	return newStateResponse(id, state), nil
}

func sessionArg(args map[string]any) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", errors.New("session_id is required")
	}
	return id, nil
}

// nodeArg accepts the node as an object or as a JSON string, since some
// clients flatten object arguments.
func nodeArg(args map[string]any) (map[string]any, error) {
	switch v := args["node"].(type) {
	case map[string]any:
		return v, nil
	case string:
		var payload map[string]any
		if err := json.Unmarshal([]byte(v), &payload); err != nil {
			return nil, fmt.Errorf("%w: node is not a JSON object: %v", domain.ErrInvalidSnapshot, err)
		}
		return payload, nil
	case nil:
		return nil, errors.New("node is required")
	default:
		return nil, fmt.Errorf("%w: node must be an object, got %T", domain.ErrInvalidSnapshot, v)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(reasonsURI, "Trim Reason Catalog",
		mcp.WithResourceDescription("Every trim reason with the node kinds it applies to"),
		mcp.WithMIMEType("application/json"),
	), s.handleReasonsResource)
}

func (s *Server) handleReasonsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.catalog.Reasons())
	if err != nil {
		return nil, fmt.Errorf("failed to encode reasons: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      reasonsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

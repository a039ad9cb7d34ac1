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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/registry"
)

// SpecsURI is the resource listing the loaded specifications.
const SpecsURI = "courselet://specs"

// TargetResponse is the structured result of every navigation tool.
type TargetResponse struct {
	Target domain.Target `json:"target" jsonschema_description:"Where the user should be sent next"`
	Depth  int           `json:"depth" jsonschema_description:"Number of flows on the session stack"`
}

// Engine is the navigation surface exposed as tools.
type Engine interface {
	Dispatch(ctx context.Context, req domain.Request, event string, extra domain.Extra) (domain.Target, error)
	PushFlow(ctx context.Context, req domain.Request, spec string, seed *domain.State) (domain.Target, error)
	PopFlow(ctx context.Context, req domain.Request) (domain.Target, error)
	Render(ctx context.Context, req domain.Request) (domain.Target, error)
	Inspect(ctx context.Context, key string) (*courselet.Snapshot, error)
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	registry  *registry.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server. reg backs the specs resource and may be nil.
func NewServer(engine Engine, reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		registry:  reg,
		mcpServer: server.NewMCPServer("courselet-mcp", strings.TrimSpace(courselet.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if reg != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
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
		s.logger.Info("mcp server listening (sse)", "address", addr)
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
			return fmt.Errorf("could not stop mcp server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("session", mcp.Required(), mcp.Description("Session key identifying the navigation stack")),
		mcp.WithString("user", mcp.Description("User id; defaults to the session key")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	all := append([]mcp.ToolOption{mcp.WithDescription(description)}, sessionParams()...)
	all = append(all, opts...)
	return mcp.NewTool(name, all...)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(tool("render", "Resolve the current target of a session without changing it.",
		mcp.WithOutputSchema[TargetResponse](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(tool("dispatch", "Apply a navigation event to the top flow of a session.",
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name, e.g. next, unit, respond")),
		mcp.WithObject("extra", mcp.Description("Event data such as entity ids or form values")),
		mcp.WithOutputSchema[TargetResponse](),
	), mcp.NewStructuredToolHandler(s.handleDispatch))

	s.mcpServer.AddTool(tool("push_flow", "Enter a nested flow on top of the session stack.",
		mcp.WithString("spec", mcp.Required(), mcp.Description("Specification name")),
		mcp.WithObject("seed", mcp.Description("Initial state: unit, unitLesson, liveSession, liveQuestion, title")),
		mcp.WithOutputSchema[TargetResponse](),
	), mcp.NewStructuredToolHandler(s.handlePush))

	s.mcpServer.AddTool(tool("pop_flow", "Leave the top flow and return to the one beneath.",
		mcp.WithOutputSchema[TargetResponse](),
	), mcp.NewStructuredToolHandler(s.handlePop))

	s.mcpServer.AddTool(mcp.NewTool("inspect",
		mcp.WithDescription("Show the persisted stack of a session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session key")),
	), s.handleInspect)
}

func requestOf(args map[string]interface{}) (domain.Request, error) {
	key, _ := args["session"].(string)
	if key == "" {
		return domain.Request{}, fmt.Errorf("%w: session is required", domain.ErrInvalidInput)
	}
	user, _ := args["user"].(string)
	if user == "" {
		user = key
	}
	return domain.Request{SessionKey: key, UserID: user}, nil
}

func objectArg(args map[string]interface{}, name string) (map[string]any, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case string:
		// Some clients send objects as JSON strings.
		out := map[string]any{}
		if err := json.Unmarshal([]byte(m), &out); err != nil {
			return nil, fmt.Errorf("%w: %s must be an object", domain.ErrInvalidInput, name)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", domain.ErrInvalidInput, name)
	}
}

func (s *Server) respond(ctx context.Context, req domain.Request, target domain.Target, err error) (TargetResponse, error) {
	if err != nil {
		s.logger.Debug("mcp tool failed", "session", req.SessionKey, "err", err)
		return TargetResponse{}, err
	}
	resp := TargetResponse{Target: target}
	if snap, err := s.engine.Inspect(ctx, req.SessionKey); err == nil {
		resp.Depth = len(snap.Frames)
	}
	return resp, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TargetResponse, error) {
	req, err := requestOf(args)
	if err != nil {
		return TargetResponse{}, err
	}
	target, err := s.engine.Render(ctx, req)
	return s.respond(ctx, req, target, err)
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TargetResponse, error) {
	req, err := requestOf(args)
	if err != nil {
		return TargetResponse{}, err
	}
	event, _ := args["event"].(string)
	if event == "" {
		return TargetResponse{}, fmt.Errorf("%w: event is required", domain.ErrInvalidInput)
	}
	extra, err := objectArg(args, "extra")
	if err != nil {
		return TargetResponse{}, err
	}
	target, err := s.engine.Dispatch(ctx, req, event, domain.Extra(extra))
	return s.respond(ctx, req, target, err)
}

func (s *Server) handlePush(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TargetResponse, error) {
	req, err := requestOf(args)
	if err != nil {
		return TargetResponse{}, err
	}
	spec, _ := args["spec"].(string)
	raw, err := objectArg(args, "seed")
	if err != nil {
		return TargetResponse{}, err
	}
	seed, err := domain.SeedFromMap(raw)
	if err != nil {
		return TargetResponse{}, err
	}
	target, err := s.engine.PushFlow(ctx, req, spec, seed)
	return s.respond(ctx, req, target, err)
}

func (s *Server) handlePop(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TargetResponse, error) {
	req, err := requestOf(args)
	if err != nil {
		return TargetResponse{}, err
	}
	target, err := s.engine.PopFlow(ctx, req)
	return s.respond(ctx, req, target, err)
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, _ := request.GetArguments()["session"].(string)
	snap, err := s.engine.Inspect(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

type specEntry struct {
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Entry string   `json:"entry"`
	Nodes []string `json:"nodes"`
}

func (s *Server) specs() ([]specEntry, error) {
	out := make([]specEntry, 0, s.registry.Len())
	for _, name := range s.registry.Names() {
		spec, err := s.registry.Specification(name)
		if err != nil {
			return nil, err
		}
		e := specEntry{Name: spec.Name, Title: spec.Title, Entry: spec.EntryName()}
		for _, n := range spec.Nodes() {
			e.Nodes = append(e.Nodes, n.Name)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SpecsURI, "Loaded specifications",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		specs, err := s.specs()
		if err != nil {
			return nil, fmt.Errorf("list specifications: %w", err)
		}
		b, err := json.Marshal(specs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SpecsURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}

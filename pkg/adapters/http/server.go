package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/registry"
)

const (
	// SessionHeader carries the session key for clients that do not keep cookies.
	SessionHeader = "X-Courselet-Session"
	// UserHeader identifies the person behind the session. Defaults to the session key.
	UserHeader = "X-User-ID"
	// DefaultCookieName is used when no cookie name is configured.
	DefaultCookieName = "courselet_session"
)

// Engine is the navigation surface the handler drives.
type Engine interface {
	Dispatch(ctx context.Context, req domain.Request, event string, extra domain.Extra) (domain.Target, error)
	PushFlow(ctx context.Context, req domain.Request, spec string, seed *domain.State) (domain.Target, error)
	PopFlow(ctx context.Context, req domain.Request) (domain.Target, error)
	Render(ctx context.Context, req domain.Request) (domain.Target, error)
	Inspect(ctx context.Context, key string) (*courselet.Snapshot, error)
	Reset(ctx context.Context, key string) error
}

// Server holds the handler dependencies.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	registry    *registry.Registry
	coordinator *live.Coordinator
	metrics     http.Handler
	metricsPath string
	cookieName  string
	logger      *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithRegistry exposes the loaded specifications under /v1/specs.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithCoordinator mounts the instructor routes under /v1/live.
func WithCoordinator(c *live.Coordinator) Option {
	return func(s *Server) {
		s.coordinator = c
	}
}

// WithMetricsHandler mounts h at path.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:     engine,
		Streams:    NewStreamManager(),
		cookieName: DefaultCookieName,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/swagger", s.GetSwagger)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.validateRequests(mustOpenAPIRouter()))
		if s.registry != nil {
			r.Get("/specs", s.ListSpecs)
			r.Get("/specs/{spec}", s.GetSpec)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.identify)
			r.Get("/target", s.Render)
			r.Post("/events/{event}", s.Dispatch)
			r.Post("/flows/{spec}", s.PushFlow)
			r.Delete("/flows/top", s.PopFlow)
			r.Get("/stack", s.Inspect)
			r.Delete("/stack", s.Reset)
		})

		if s.coordinator != nil {
			r.Route("/live", s.liveRoutes)
		}
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader+", "+UserHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type requestKey struct{}

// identify resolves the session key and user for the request. Sessions come from
// the header first, then the cookie; a new key is issued as a cookie otherwise.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(SessionHeader))
		if key == "" {
			if c, err := r.Cookie(s.cookieName); err == nil {
				key = c.Value
			}
		}
		if key == "" {
			key = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    key,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			user = key
		}
		req := domain.Request{SessionKey: key, UserID: user}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestKey{}, req)))
	})
}

func requestFrom(ctx context.Context) domain.Request {
	req, _ := ctx.Value(requestKey{}).(domain.Request)
	return req
}

// Render handles GET /v1/target.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	target, err := s.Engine.Render(r.Context(), requestFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

type eventBody struct {
	Extra map[string]any `json:"extra"`
}

// Dispatch handles POST /v1/events/{event}.
func (s *Server) Dispatch(w http.ResponseWriter, r *http.Request) {
	var body eventBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	event, err := pathParam[string](r, "event")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.Engine.Dispatch(r.Context(), requestFrom(r.Context()), event, domain.Extra(body.Extra))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

type pushBody struct {
	Seed map[string]any `json:"seed"`
}

// PushFlow handles POST /v1/flows/{spec}.
func (s *Server) PushFlow(w http.ResponseWriter, r *http.Request) {
	var body pushBody
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	seed, err := domain.SeedFromMap(body.Seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spec, err := pathParam[string](r, "spec")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.Engine.PushFlow(r.Context(), requestFrom(r.Context()), spec, seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

// PopFlow handles DELETE /v1/flows/top.
func (s *Server) PopFlow(w http.ResponseWriter, r *http.Request) {
	target, err := s.Engine.PopFlow(r.Context(), requestFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

// Inspect handles GET /v1/stack.
func (s *Server) Inspect(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.Inspect(r.Context(), requestFrom(r.Context()).SessionKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// Reset handles DELETE /v1/stack.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reset(r.Context(), requestFrom(r.Context()).SessionKey); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type specSummary struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	HideTabs bool   `json:"hide_tabs,omitempty"`
	Entry    string `json:"entry"`
}

type nodeView struct {
	Name  string     `json:"name"`
	Title string     `json:"title,omitempty"`
	Path  string     `json:"path,omitempty"`
	Edges []edgeView `json:"edges,omitempty"`
}

type edgeView struct {
	Name  string `json:"name"`
	To    string `json:"to,omitempty"`
	Title string `json:"title,omitempty"`
}

// ListSpecs handles GET /v1/specs.
func (s *Server) ListSpecs(w http.ResponseWriter, r *http.Request) {
	out := make([]specSummary, 0, s.registry.Len())
	for _, name := range s.registry.Names() {
		spec, err := s.registry.Specification(name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, summarizeSpec(spec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetSpec handles GET /v1/specs/{spec}.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam[string](r, "spec")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spec, err := s.registry.Specification(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nodes := make([]nodeView, 0, len(spec.Nodes()))
	for _, n := range spec.Nodes() {
		v := nodeView{Name: n.Name, Title: n.Title, Path: n.Path}
		for _, e := range n.Edges() {
			v.Edges = append(v.Edges, edgeView{Name: e.Name, To: e.ToNode, Title: e.Title})
		}
		nodes = append(nodes, v)
	}
	s.writeJSON(w, http.StatusOK, struct {
		specSummary
		Nodes []nodeView `json:"nodes"`
	}{summarizeSpec(spec), nodes})
}

func summarizeSpec(spec *domain.Specification) specSummary {
	return specSummary{Name: spec.Name, Title: spec.Title, HideTabs: spec.HideTabs, Entry: spec.EntryName()}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "courselet-http",
		"version": strings.TrimSpace(courselet.Version),
	})
}

// decodeBody reads an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &BadRequestError{Err: err}
	}
	return nil
}

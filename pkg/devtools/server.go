package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glintui/glint/pkg/reactive"
)

// DefaultAddr is where the inspector listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:6230"

// ServerOptions configures the inspector server.
type ServerOptions struct {
	// Addr is the listen address (default: DefaultAddr).
	Addr string

	// Recorder supplies /api/events and the live stream. If nil, the
	// server creates its own recorder and installs it until Close.
	Recorder *Recorder

	// Gatherer serves GET /metrics when set. Pass the registry handed to
	// telemetry.Metrics, or prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Server exposes the inspector API over HTTP:
//
//	GET /api/snapshot   graph snapshot (JSON)
//	GET /api/stats      runtime counters (JSON)
//	GET /api/events     recent events from the recorder (JSON, ?limit=N)
//	GET /api/graph.dot  snapshot as a Graphviz digraph
//	GET /ws             live event stream (WebSocket)
//	GET /metrics        Prometheus exposition, when a Gatherer is set
//	GET /healthz        liveness probe
type Server struct {
	addr     string
	log      *slog.Logger
	recorder *Recorder
	router   chi.Router
	hub      *eventHub

	removeRecorder func()

	eventCh  chan Event
	done     chan struct{}
	pumpOnce sync.Once

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	running    bool
	closed     bool
}

// NewServer creates an inspector server. Call Serve to run it, or mount
// Handler on an existing server.
func NewServer(options ServerOptions) *Server {
	addr := options.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:     addr,
		log:      logger,
		recorder: options.Recorder,
		hub:      newEventHub(logger),
		eventCh:  make(chan Event, 256),
		done:     make(chan struct{}),
	}

	if s.recorder == nil {
		s.recorder = NewRecorder(DefaultRecorderCapacity)
		s.removeRecorder = s.recorder.Install()
	}

	// Events arrive on the reactive goroutine; drop instead of blocking it
	// when the stream falls behind.
	s.recorder.AddListener(func(ev Event) {
		select {
		case s.eventCh <- ev:
		default:
		}
	})

	s.router = s.buildRouter(options.Gatherer)
	return s
}

// Handler returns the inspector's HTTP handler for mounting on another
// server. The live stream pump starts on first use.
func (s *Server) Handler() http.Handler {
	s.startPump()
	return s.router
}

// Addr returns the bound address once Serve has started, or the configured
// address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve listens on the configured address and blocks until ctx is canceled
// or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("devtools: listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.router}
	s.mu.Unlock()

	s.startPump()
	s.log.Info("devtools inspector listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Close()
		return nil
	case err := <-errCh:
		s.Close()
		return err
	}
}

// Close stops the event stream, detaches the server-owned recorder, and
// shuts the HTTP server down. Idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.running = false
	httpServer := s.httpServer
	s.mu.Unlock()

	close(s.done)
	if s.removeRecorder != nil {
		s.removeRecorder()
	}
	s.hub.close()

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}
}

func (s *Server) startPump() {
	s.pumpOnce.Do(func() {
		go s.pump()
	})
}

// pump moves recorded events from the listener channel to the hub off the
// reactive goroutine.
func (s *Server) pump() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.eventCh:
			s.hub.broadcast(ev)
		}
	}
}

func (s *Server) buildRouter(gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/graph.dot", s.handleDOT)
	r.Get("/ws", s.hub.handleWebSocket)

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		s.log.Debug("devtools request",
			"method", req.Method,
			"path", req.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, reactive.Stats())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, Capture())
}

func (s *Server) handleEvents(w http.ResponseWriter, req *http.Request) {
	events := s.recorder.Events()

	if raw := req.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(events) {
			events = events[len(events)-limit:]
		}
	}

	s.writeJSON(w, events)
}

func (s *Server) handleDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	if err := WriteDOT(w, Capture()); err != nil {
		s.log.Error("dot export failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("json encode failed", "err", err)
	}
}

package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"candyworks/internal/catalog"
	"candyworks/internal/config"
	"candyworks/internal/httpmw"
	"candyworks/internal/session"
	"candyworks/internal/store"
	"candyworks/internal/stream"
	"candyworks/internal/telemetry"
	"candyworks/internal/tycoon"
	staticfiles "candyworks/static"
	"candyworks/ui/page"

	"github.com/a-h/templ"
)

type Options struct {
	Config        *config.Config
	DataDir       string
	StaticDir     string
	UseDiskStatic bool
	Logger        *log.Logger
	// Clock drives the simulation. Nil means wall time.
	Clock         tycoon.Clock
}

// App is one running factory together with its HTTP surface.
type App struct {
	cfg       *config.Config
	layout    tycoon.Layout
	repo      *store.FileRepo
	session   *session.Session
	scheduler *session.Scheduler
	hub       *stream.Hub
	limiter   *httpmw.IPLimiter
	handler   http.Handler
	logger    *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New restores the configured session from disk and builds the routes. The
// simulation does not advance until Start.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = cfg.Server.DataDir
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = cfg.Server.StaticDir
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	layout, err := catalog.Resolve(cfg.Catalog.Name, cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	repo, err := store.NewFileRepo(filepath.Join(opts.DataDir, "sessions"))
	if err != nil {
		return nil, err
	}

	s, err := session.Open(ctx, session.Options{
		ID:        cfg.Simulation.SessionID,
		Engine:    tycoon.NewEngine(cfg.Tuning(), opts.Clock),
		Layout:    layout,
		Repo:      repo,
		Telemetry: telemetry.NewMemoryRepository(telemetry.DefaultLimit),
		Logger:    opts.Logger,
		MaxFrame:  cfg.Simulation.MaxFrame(),
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		layout:  layout,
		repo:    repo,
		session: s,
		scheduler: session.NewScheduler(s, session.Schedule{
			TickInterval:     cfg.Simulation.TickInterval(),
			IncomeInterval:   cfg.Simulation.IncomeInterval(),
			AutosaveInterval: cfg.Simulation.AutosaveInterval(),
		}),
		hub: stream.NewHub(s, stream.Options{
			StateEvery: 250 * time.Millisecond,
			Buffer:     cfg.Simulation.EventBuffer,
			Logger:     opts.Logger,
		}),
		limiter: httpmw.NewIPLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		logger:  opts.Logger,
	}
	a.handler = a.routes(opts)
	return a, nil
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Session() *session.Session { return a.session }

// Start runs the simulation scheduler and the websocket hub.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopped = make(chan struct{})

	go func() {
		defer close(a.stopped)
		a.hub.Run(ctx)
	}()
	go a.pruneLimiter(ctx)
	a.scheduler.Start()

	a.logJSON("info", "factory_started", map[string]any{
		"session_id": a.session.ID(),
		"layout":     a.layout.Name,
	})
}

// Shutdown stops the simulation and writes a final snapshot.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	cancel, stopped := a.cancel, a.stopped
	a.cancel = nil
	a.mu.Unlock()

	a.scheduler.Stop()
	if cancel != nil {
		cancel()
		select {
		case <-stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := a.session.Save(ctx); err != nil {
		return err
	}
	a.logJSON("info", "factory_stopped", map[string]any{"session_id": a.session.ID()})
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.limiter.Prune()
		}
	}
}

func (a *App) routes(opts Options) http.Handler {
	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "candyworks",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := a.repo.List(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "session storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"service":   "candyworks",
			"simulated": a.scheduler.Running(),
			"time":      time.Now().UTC().Format(time.RFC3339),
		})
	})

	h := session.NewHandler(a.session)
	mux.HandleFunc("/api/tycoon/state", h.State)
	mux.Handle("/api/tycoon/cmd", httpmw.WithRateLimit(a.limiter, a.logger)(http.HandlerFunc(h.Command)))
	mux.HandleFunc("/api/tycoon/stats", h.Stats)
	mux.HandleFunc("/api/tycoon/ws", a.hub.ServeWS)

	mux.HandleFunc("/api/catalogs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"active":   a.layout.Name,
			"builtins": catalog.Names(),
		})
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	dashboard := templ.Handler(page.Dashboard(page.DashboardProps{
		Session: a.session.ID(),
		Catalog: a.layout.Name,
	}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		dashboard.ServeHTTP(w, r)
	})

	return httpmw.Chain(
		mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(a.logger),
		httpmw.WithRecover(a.logger),
	)
}

func UseDiskStaticByEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CANDYWORKS_DEV_STATIC"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) logJSON(level, msg string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		payload[k] = v
	}
	if b, err := json.Marshal(payload); err == nil {
		a.logger.Print(string(b))
	}
}

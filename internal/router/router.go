package router

import (
	"net/http"
	"time"

	_ "companion-connect/docs"
	"companion-connect/internal/adapters/storage/instrumented"
	mem "companion-connect/internal/adapters/storage/memory"
	"companion-connect/internal/domain/animals"
	"companion-connect/internal/middleware"
	"companion-connect/internal/platform/logger"
	"companion-connect/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Logger logger.Logger // puede ser nil

	// Opcional: si no viene, in-memory (modo dev).
	Repo    animals.Repository
	Backend string // label "backend" de las métricas

	// Opcional: si no viene se crea un registry propio.
	Registry *prometheus.Registry

	StoreTimeout time.Duration
	SessionTTL   time.Duration
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	repo := opts.Repo
	backend := opts.Backend
	if repo == nil {
		repo = mem.NewAnimalRepo(0)
		backend = "memory"
	}
	if backend == "" {
		backend = "custom"
	}

	storeMetrics, err := metrics.NewStoreMetrics(reg, backend)
	if err != nil {
		// registry compartido con métricas ya registradas: seguimos sin métricas de store
		log.Warn("store metrics disabled", map[string]any{"error": err})
		storeMetrics = nil
	}

	repo = instrumented.New(repo, storeMetrics, log, opts.StoreTimeout)

	alloc := animals.NewAllocator(repo, log)
	alloc.OnFallback = storeMetrics.AllocatorFallback

	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = animals.DefaultSessionTTL
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	svc := animals.NewService(repo, alloc, log)
	sessions := animals.NewSessionStore(ttl)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(ttl))
		animals.RegisterRoutes(r, svc, sessions)
	})

	return r
}

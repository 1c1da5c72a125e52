package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerhandler "tallyman/internal/ledger/handler"
	"tallyman/internal/platform/metrics"
	"tallyman/internal/platform/middleware"
	"tallyman/pkg/platform/httputil"
	"tallyman/pkg/platform/middleware/metadata"
)

// Config carries what the router needs beyond the ledger handler.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	// Readiness checks run on /ready, keyed by dependency name.
	Readiness map[string]func(context.Context) error
}

// NewRouter wires the ledger endpoints together with /health, /ready and /metrics.
// Operational endpoints skip the request timeout and access log.
func NewRouter(ledger *ledgerhandler.Handler, cfg Config) http.Handler {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(cfg.Readiness))
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Logger(cfg.Logger))
		if cfg.Metrics != nil {
			api.Use(middleware.Latency(cfg.Metrics))
		}
		api.Use(chimw.Timeout(cfg.RequestTimeout))
		ledger.Register(api)
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}

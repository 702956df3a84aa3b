package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kbgenie/upload-genie/api/controllers"
	"github.com/kbgenie/upload-genie/api/middleware"
	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/internal/notifications"
	"github.com/kbgenie/upload-genie/pkg/config"
	"github.com/kbgenie/upload-genie/pkg/db"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/pubsub"
	"github.com/kbgenie/upload-genie/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	artifactsService artifacts.Service,
	notificationsService notifications.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	queryPolicy := middleware.NewQueryRateLimitPolicy(
		"tracker-query",
		cfg.QueryLimit.Window,
		cfg.QueryLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(dbP, redisClient, pubsubClient)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/tracker", func(r chi.Router) {
		r.Get("/health", controllers.TrackerHealth(artifactsService, logg))
		r.With(middleware.QueryRateLimit(queryPolicy, redisClient, logg)).Post("/query", controllers.TrackerQuery(artifactsService, logg))
		r.With(middleware.QueryRateLimit(queryPolicy, redisClient, logg)).Get("/status/{trackerId}", controllers.TrackerStatus(artifactsService, logg))
		r.With(middleware.QueryRateLimit(queryPolicy, redisClient, logg)).Get("/{trackerId}/notifications", controllers.TrackerNotifications(notificationsService, logg))
	})

	r.Route("/api/v1/uploads", func(r chi.Router) {
		r.Post("/", controllers.CreateUpload(artifactsService, logg))
	})

	r.Route("/api/v1/pipeline", func(r chi.Router) {
		r.Post("/artifacts/{trackerId}/status", controllers.AdvanceArtifactStatus(artifactsService, logg))
	})

	r.Route("/api/admin/v1/artifacts", func(r chi.Router) {
		r.Get("/", controllers.ListArtifacts(artifactsService, logg))
		r.Get("/stats", controllers.ArtifactStats(artifactsService, logg))
	})

	return r
}

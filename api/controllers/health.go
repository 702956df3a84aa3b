package controllers

import (
	"context"
	"net/http"

	"github.com/kbgenie/upload-genie/api/responses"
	"github.com/kbgenie/upload-genie/pkg/config"
	"github.com/kbgenie/upload-genie/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UploadGenie-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency the API needs to serve traffic. A single
// failing dependency flips the whole endpoint to 503 so load balancers stop
// routing here.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UploadGenie-Env", cfg.App.Env)

		statuses := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				healthy = false
				statuses[name] = "unreachable"
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", name)
					logg.Error(ctx, "health.dependency_unreachable", err)
				}
				continue
			}
			statuses[name] = "ok"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status":       "degraded",
				"dependencies": statuses,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":       "ready",
			"dependencies": statuses,
		})
	}
}

// ReadyDeps is the named dependency set HealthReady checks.
func ReadyDeps(dbP, redisP, pubsubP pinger) map[string]pinger {
	return map[string]pinger{
		"postgres": dbP,
		"redis":    redisP,
		"pubsub":   pubsubP,
	}
}

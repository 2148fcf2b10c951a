package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ooprato/ooprato-backend/api/responses"
	"github.com/ooprato/ooprato-backend/pkg/config"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(context.Context) error
}

// Healthz reports ok when every configured dependency answers a ping.
// A nil pinger is skipped.
func Healthz(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ooprato-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				checks[name] = "down"
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_down")
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ok", "checks": checks})
	}
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/laundrydesk-backend/api/responses"
	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/laundrydesk-backend/pkg/errors"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

const envHeader = "X-LaundryDesk-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency concurrently and reports 503 when
// any of them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		failures := make([]error, len(names))

		var g errgroup.Group
		for i, name := range names {
			pinger := deps[name]
			if pinger == nil {
				continue
			}
			g.Go(func() error {
				failures[i] = pinger.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		results := make(map[string]string, len(names))
		healthy := true
		for i, name := range names {
			if failures[i] == nil {
				results[name] = "ok"
				continue
			}
			healthy = false
			results[name] = "down"
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": failures[i].Error()}), "readiness check failed")
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"checks": results}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": results})
	}
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nearbuy-labs/nearbuy-backend/api/responses"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps how often one user may hit a traffic surface.
type RateLimitPolicy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

func (p RateLimitPolicy) enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// RateLimit enforces a per-user fixed window. The limiter is advisory: if it
// errors the request proceeds, since throttling must never take the API down.
func RateLimit(policy RateLimitPolicy, limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := fmt.Sprintf("%s:%s", policy.Name, UserIDFromContext(ctx))

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, policy.Limit, policy.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate limiter unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(ctx, logg, w, pkgerrors.
					New(pkgerrors.CodeRateLimit, "request rate exceeded").
					WithDetails(map[string]any{
						"limit":  policy.Limit,
						"window": policy.Window.String(),
						"count":  count,
					}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

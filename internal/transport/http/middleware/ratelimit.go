package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/service/ratelimit"
	"github.com/iamasit07/soloq/internal/transport/http/response"
	"github.com/iamasit07/soloq/pkg/metrics"
	"github.com/iamasit07/soloq/pkg/useragent"
	"go.uber.org/zap"
)

// RateLimit is a fixed-window budget for one route.
type RateLimit struct {
	Route  string
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware counts the request against route:ip:uid, where uid is
// the verified player when auth already ran and the X-User-Id header
// otherwise. The window headers are set on every response of the route. A
// limiter failure lets the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, rl RateLimit, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratelimit")

	return func(c *gin.Context) {
		key := rl.Route + ":" + useragent.ExtractIPAddress(c.Request) + ":" + callerID(c)

		res, err := limiter.Hit(c.Request.Context(), key, rl.Limit, rl.Window)
		if err != nil {
			log.Error("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		response.RateLimitHeaders(c, res.Remaining, res.Reset.UnixMilli())
		if !res.Allowed {
			metrics.RecordRateLimited(rl.Route)
			response.Error(c, &domain.RateLimitError{Remaining: res.Remaining, Reset: res.Reset})
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.PlayerID
	}
	return c.GetHeader("X-User-Id")
}

package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flightline-labs/discstash/internal/metrics"
)

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	claims, err := h.tokens.ValidateToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, claims.Subject)
	c.Set(emailContextKey, claims.Email)
	c.Next()
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter for EventSource clients that cannot set
// headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("access_token"))
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limitByClientAddress applies a per-address token bucket to unauthenticated
// routes. Idle entries are dropped opportunistically on each lookup.
func limitByClientAddress(perMinute int, logger *zap.Logger) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*clientLimiter)
	)
	const idleEviction = 10 * time.Minute

	return func(c *gin.Context) {
		address := c.ClientIP()
		now := time.Now()

		mu.Lock()
		for key, entry := range limiters {
			if now.Sub(entry.lastAccess) > idleEviction {
				delete(limiters, key)
			}
		}
		entry, ok := limiters[address]
		if !ok {
			entry = &clientLimiter{
				limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
			}
			limiters[address] = entry
		}
		entry.lastAccess = now
		allowed := entry.limiter.Allow()
		mu.Unlock()

		if !allowed {
			logger.Warn("rate limit exceeded", zap.String("client", address), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}
		c.Next()
	}
}

func observeRequests(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RequestObserved(c.Request.Method, route, c.Writer.Status(), time.Since(started))
	}
}

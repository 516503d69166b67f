package http

import (
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/dsa-assistant/utils/log"
)

// Limiter is the per-client request budget. One instance is shared by the
// HTTP routes and the websocket frame dispatcher so a client cannot dodge
// the limit by switching transport. A nil *Limiter admits everything.
type Limiter struct {
	store   *middleware.RateLimiterMemoryStore
	message string
	onDeny  func()
}

// NewLimiter admits at most limit requests per client per window. The memory
// store is a token bucket with a burst of limit refilled at limit/window, so
// the sustained rate is limit per window.
func NewLimiter(limit int, window time.Duration, onDeny func()) *Limiter {
	return &Limiter{
		store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(limit) / window.Seconds()),
			Burst:     limit,
			ExpiresIn: window,
		}),
		message: "Too many requests from this IP, please try again after " + humanizeWindow(window),
		onDeny:  onDeny,
	}
}

// Allow implements middleware.RateLimiterStore.
func (l *Limiter) Allow(identifier string) (bool, error) {
	if l == nil {
		return true, nil
	}
	ok, err := l.store.Allow(identifier)
	if err == nil && !ok && l.onDeny != nil {
		l.onDeny()
	}
	return ok, err
}

// Message is the error text returned to denied clients.
func (l *Limiter) Message() string {
	if l == nil {
		return ""
	}
	return l.message
}

// RateLimiter applies l to every route except the health check and metrics.
// Clients are identified by echo's RealIP, which is only as trustworthy as
// the router's IPExtractor.
func RateLimiter(l *Limiter) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/metrics" || p == "/api/health"
		},
		Store: l,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			log.WithCtx(c.Request().Context()).Warn("Rate limit exceeded", zap.String("ip", identifier))
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: l.Message()})
		},
	})
}

// IPExtractor reads the client address from the socket unless proxies are
// listed, in which case X-Forwarded-For is honoured only when it was
// appended by one of them.
func IPExtractor(trustedProxies []*net.IPNet) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trustedProxies {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

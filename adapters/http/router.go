package http

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Metrics is what the router needs from the metrics adapter.
type Metrics interface {
	HTTPObserver
	Handler() http.Handler
}

type RouterConfig struct {
	ExposeErrorDetails bool
	CORSAllowOrigins   []string
	BodyLimit          string

	// TrustedProxies lists the proxies whose X-Forwarded-For entries are
	// believed. Empty means the socket address identifies the client.
	TrustedProxies []*net.IPNet
}

type RouterDeps struct {
	Hints     *HintHandler
	Sessions  *Sessions
	Metrics   Metrics          // optional
	Limiter   *Limiter         // optional, shared with the websocket server
	Websocket echo.HandlerFunc // optional, mounted at GET /ws behind the session guard
}

func NewRouter(cfg RouterConfig, deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.ExposeErrorDetails)
	e.IPExtractor = IPExtractor(cfg.TrustedProxies)

	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestContext)
	e.Use(RequestLogger())
	if deps.Metrics != nil {
		e.Use(Observe(deps.Metrics))
	}
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
	}))
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        86400,
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if deps.Limiter != nil {
		e.Use(RateLimiter(deps.Limiter))
	}

	api := e.Group("/api")
	api.GET("/health", deps.Hints.HealthCheck)
	api.POST("/generate-hint", deps.Hints.GenerateHint)
	api.POST("/analyze-problem", deps.Hints.AnalyzeProblem)
	api.POST("/reset-conversation", deps.Hints.ResetConversation)
	api.POST("/session", deps.Sessions.Issue)

	if deps.Websocket != nil {
		e.GET("/ws", deps.Websocket, deps.Sessions.JWTMiddleware)
	}
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	return e
}

package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/dsa-assistant/domain"
	"github.com/satriahrh/dsa-assistant/usecase"
	"github.com/satriahrh/dsa-assistant/utils/log"
)

const serviceName = "dsa-assistant"

// ClientCounter reports connected websocket clients for the health check.
type ClientCounter interface {
	ClientCount() int
}

type HintHandler struct {
	svc           *usecase.HintService
	clients       ClientCounter
	exposeDetails bool
}

func NewHintHandler(svc *usecase.HintService, clients ClientCounter, exposeDetails bool) *HintHandler {
	return &HintHandler{
		svc:           svc,
		clients:       clients,
		exposeDetails: exposeDetails,
	}
}

// GenerateHint handles POST /api/generate-hint.
func (h *HintHandler) GenerateHint(c echo.Context) error {
	var req domain.HintRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
	}

	resp, err := h.svc.GenerateHint(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// AnalyzeProblem handles POST /api/analyze-problem.
func (h *HintHandler) AnalyzeProblem(c echo.Context) error {
	var req domain.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
	}

	resp, err := h.svc.AnalyzeProblem(c.Request().Context(), req.ProblemURL)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetConversation handles POST /api/reset-conversation. The body is ignored.
func (h *HintHandler) ResetConversation(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Reset(c.Request().Context()))
}

// HealthCheck handles GET /api/health.
func (h *HintHandler) HealthCheck(c echo.Context) error {
	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
		"provider":  h.svc.Provider(),
		"model":     h.svc.Model(),
		"wsClients": clients,
	})
}

func (h *HintHandler) fail(c echo.Context, err error) error {
	status, body := MapError(err, h.exposeDetails)
	if status >= http.StatusInternalServerError {
		log.WithCtx(c.Request().Context()).Error("Request failed",
			zap.String("route", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(status, body)
}

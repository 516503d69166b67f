package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	httpadapter "github.com/satriahrh/dsa-assistant/adapters/http"
	"github.com/satriahrh/dsa-assistant/domain"
	"github.com/satriahrh/dsa-assistant/usecase"
	"github.com/satriahrh/dsa-assistant/utils/log"
)

// Inbound frame types.
const (
	TypeGenerateHint      = "generate-hint"
	TypeAnalyzeProblem    = "analyze-problem"
	TypeResetConversation = "reset-conversation"
)

// Outbound frame types.
const (
	TypeHint     = "hint"
	TypeAnalysis = "analysis"
	TypeReset    = "reset"
	TypeError    = "error"
)

const (
	msgUnknownType  = "Unknown message type"
	msgInvalidFrame = "Invalid message"
)

// Request is a client frame. The fields mirror the HTTP request bodies.
type Request struct {
	ID                  string        `json:"id,omitempty"`
	Type                string        `json:"type"`
	ProblemURL          string        `json:"problemUrl,omitempty"`
	UserQuestion        string        `json:"userQuestion,omitempty"`
	ConversationHistory []domain.Turn `json:"conversationHistory,omitempty"`
}

// Reply is a server frame. ID echoes the request id.
type Reply struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type"`
	Hint       string `json:"hint,omitempty"`
	ProblemURL string `json:"problemUrl,omitempty"`
	Analysis   string `json:"analysis,omitempty"`
	Success    bool   `json:"success,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
	Status     int    `json:"status,omitempty"`
}

// Admitter is the per-client request budget, shared with the HTTP routes.
type Admitter interface {
	Allow(identifier string) (bool, error)
	Message() string
}

type Server struct {
	upgrader      websocket.Upgrader
	svc           *usecase.HintService
	hub           *Hub
	limiter       Admitter
	exposeDetails bool
}

// NewServer builds the websocket server. observer and limiter may be nil.
func NewServer(svc *usecase.HintService, observer ConnectionObserver, limiter Admitter, exposeDetails bool) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		svc:           svc,
		hub:           NewHub(observer),
		limiter:       limiter,
		exposeDetails: exposeDetails,
	}
}

func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown closes every open connection.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

// Dispatch handles one raw frame sent by the client at clientIP and returns
// the encoded reply. Every well-formed frame spends one request of the
// client's budget, the same as an HTTP call.
func (s *Server) Dispatch(ctx context.Context, clientIP string, raw []byte) []byte {
	reply := s.reply(ctx, clientIP, raw)
	out, err := json.Marshal(reply)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal reply", zap.Error(err))
		return nil
	}
	return out
}

func (s *Server) reply(ctx context.Context, clientIP string, raw []byte) Reply {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.WithCtx(ctx).Debug("Malformed frame", zap.Error(err))
		return Reply{Type: TypeError, Error: msgInvalidFrame, Status: http.StatusBadRequest}
	}

	frameID := req.ID
	if frameID == "" {
		frameID = uuid.NewString()
	}
	ctx = log.WithRequestID(ctx, frameID)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(clientIP)
		if err != nil {
			return s.errorReply(ctx, req.ID, err)
		}
		if !ok {
			log.WithCtx(ctx).Warn("Rate limit exceeded", zap.String("ip", clientIP))
			return Reply{ID: req.ID, Type: TypeError, Error: s.limiter.Message(), Status: http.StatusTooManyRequests}
		}
	}

	switch req.Type {
	case TypeGenerateHint:
		resp, err := s.svc.GenerateHint(ctx, domain.HintRequest{
			ProblemURL: req.ProblemURL,
			Question:   req.UserQuestion,
			History:    req.ConversationHistory,
		})
		if err != nil {
			return s.errorReply(ctx, req.ID, err)
		}
		return Reply{ID: req.ID, Type: TypeHint, Hint: resp.Hint, ProblemURL: resp.ProblemURL}

	case TypeAnalyzeProblem:
		resp, err := s.svc.AnalyzeProblem(ctx, req.ProblemURL)
		if err != nil {
			return s.errorReply(ctx, req.ID, err)
		}
		return Reply{ID: req.ID, Type: TypeAnalysis, Analysis: resp.Analysis}

	case TypeResetConversation:
		res := s.svc.Reset(ctx)
		return Reply{ID: req.ID, Type: TypeReset, Success: res.Success, Message: res.Message}

	default:
		log.WithCtx(ctx).Debug("Unknown frame type", zap.String("type", req.Type))
		return Reply{ID: req.ID, Type: TypeError, Error: msgUnknownType, Status: http.StatusBadRequest}
	}
}

func (s *Server) errorReply(ctx context.Context, id string, err error) Reply {
	status, body := httpadapter.MapError(err, s.exposeDetails)
	if status >= http.StatusInternalServerError {
		log.WithCtx(ctx).Error("Frame failed", zap.Error(err))
	}
	details := body.Details
	if details == "" {
		details = body.Message
	}
	return Reply{ID: id, Type: TypeError, Error: body.Error, Details: details, Status: status}
}

package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/satriahrh/dsa-assistant/domain"
	"github.com/satriahrh/dsa-assistant/utils/log"
	"go.uber.org/zap"
)

const (
	// HistoryWindow caps how many previous turns are forwarded upstream.
	HistoryWindow = 10

	hintMaxTokens       = 350
	hintTemperature     = 0.5
	analysisMaxTokens   = 400
	analysisTemperature = 0.4

	FallbackHint     = "I'm having trouble generating a specific hint. Could you provide more details about your approach?"
	FallbackAnalysis = "Unable to provide a detailed analysis of the problem."
	ResetMessage     = "Conversation reset"

	opGenerateHint   = "generate hint"
	opAnalyzeProblem = "analyze problem"
)

// HintService relays hint and analysis requests to the completion provider.
// It holds no per-conversation state; the client resends its transcript on
// every call.
type HintService struct {
	llm     domain.Completer
	hasher  domain.Hasher
	metrics domain.Metrics
}

func NewHintService(llm domain.Completer, hasher domain.Hasher, metrics domain.Metrics) *HintService {
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &HintService{llm: llm, hasher: hasher, metrics: metrics}
}

func (s *HintService) Provider() string { return s.llm.Name() }

func (s *HintService) Model() string { return s.llm.Model() }

// GenerateHint validates the request, windows the transcript and asks the
// provider for a Socratic hint. An empty completion yields FallbackHint.
func (s *HintService) GenerateHint(ctx context.Context, req domain.HintRequest) (domain.HintResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return domain.HintResponse{}, domain.ErrMissingQuestion
	}

	problemURL := ResolveProblemURL(req)
	if problemURL == "" {
		return domain.HintResponse{}, domain.ErrMissingReference
	}
	if !domain.IsValidProblemURL(problemURL) {
		return domain.HintResponse{}, domain.ErrInvalidReference
	}

	hint, err := s.complete(ctx, opGenerateHint, req.Question, domain.CompletionRequest{
		Messages:    ComposeHintMessages(problemURL, req.Question, req.History),
		Temperature: hintTemperature,
		MaxTokens:   hintMaxTokens,
	}, FallbackHint)
	if err != nil {
		return domain.HintResponse{}, err
	}

	return domain.HintResponse{Hint: hint, ProblemURL: problemURL}, nil
}

// AnalyzeProblem asks the provider for an overview of the problem's category,
// techniques and common pitfalls. It takes no transcript.
func (s *HintService) AnalyzeProblem(ctx context.Context, problemURL string) (domain.Analysis, error) {
	if strings.TrimSpace(problemURL) == "" {
		return domain.Analysis{}, domain.ErrMissingReference
	}
	if !domain.IsValidProblemURL(problemURL) {
		return domain.Analysis{}, domain.ErrInvalidReference
	}

	analysis, err := s.complete(ctx, opAnalyzeProblem, problemURL, domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: domain.SystemRole, Content: BuildAnalysisPrompt(problemURL)},
		},
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	}, FallbackAnalysis)
	if err != nil {
		return domain.Analysis{}, err
	}

	return domain.Analysis{Analysis: analysis}, nil
}

// Reset exists so clients have an endpoint to call when they clear their
// local transcript. There is nothing to clear on the server.
func (s *HintService) Reset(ctx context.Context) domain.ResetResult {
	log.WithCtx(ctx).Debug("Conversation reset requested")
	return domain.ResetResult{Success: true, Message: ResetMessage}
}

// ResolveProblemURL returns the request's problem URL, or the one carried by
// the most recent history turn that has one. Turns without a URL (analysis
// and error messages usually have none) are skipped rather than ending the
// search. A whitespace-only URL counts as absent, like a blank question, so
// it falls back to history instead of failing the shape check; if nothing is
// found the caller reports the reference as missing.
func ResolveProblemURL(req domain.HintRequest) string {
	if strings.TrimSpace(req.ProblemURL) != "" {
		return req.ProblemURL
	}
	for i := len(req.History) - 1; i >= 0; i-- {
		if u := req.History[i].ProblemURL; strings.TrimSpace(u) != "" {
			return u
		}
	}
	return ""
}

// WindowHistory maps the last n turns to chat messages, oldest first.
// Only the "user" sender maps to the user role.
func WindowHistory(history []domain.Turn, n int) []domain.Message {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	msgs := make([]domain.Message, 0, len(history))
	for _, t := range history {
		role := domain.AssistantRole
		if t.Sender == string(domain.UserRole) {
			role = domain.UserRole
		}
		msgs = append(msgs, domain.Message{Role: role, Content: t.Text})
	}
	return msgs
}

// ComposeHintMessages builds the outbound list: system prompt, windowed
// transcript, then the current question. The question is always appended,
// even if it repeats the last windowed turn.
func ComposeHintMessages(problemURL, question string, history []domain.Turn) []domain.Message {
	window := WindowHistory(history, HistoryWindow)
	msgs := make([]domain.Message, 0, len(window)+2)
	msgs = append(msgs, domain.Message{Role: domain.SystemRole, Content: BuildSystemPrompt(problemURL, question)})
	msgs = append(msgs, window...)
	msgs = append(msgs, domain.Message{Role: domain.UserRole, Content: question})
	return msgs
}

func (s *HintService) complete(ctx context.Context, op, subject string, req domain.CompletionRequest, fallback string) (string, error) {
	logger := log.WithCtx(ctx).With(
		zap.String("op", op),
		zap.String("provider", s.llm.Name()),
		zap.String("model", s.llm.Model()),
		zap.Int("messages", len(req.Messages)),
	)
	if s.hasher != nil {
		logger = logger.With(zap.String("subject_sha256", s.hasher.Hash([]byte(subject))))
	}

	start := time.Now()
	resp, err := s.llm.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveCompletion(op, s.llm.Name(), domain.OutcomeError, elapsed, domain.Usage{})
		logger.Error("Completion failed", zap.Duration("latency", elapsed), zap.Error(err))
		return "", &domain.UpstreamError{Op: op, Provider: s.llm.Name(), Err: err}
	}

	text, ok := resp.FirstText()
	if !ok {
		s.metrics.ObserveCompletion(op, s.llm.Name(), domain.OutcomeFallback, elapsed, resp.Usage)
		logger.Warn("Completion returned no content, using fallback", zap.Duration("latency", elapsed))
		return fallback, nil
	}

	s.metrics.ObserveCompletion(op, s.llm.Name(), domain.OutcomeSuccess, elapsed, resp.Usage)
	logger.Info("Completion succeeded",
		zap.Duration("latency", elapsed),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	logger.Debug("Completion preview", zap.String("text", preview(text, 100)))
	return text, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/satriahrh/dsa-assistant/adapters/metrics"
	"github.com/satriahrh/dsa-assistant/domain"
	"github.com/satriahrh/dsa-assistant/usecase"
)

const twoSum = "https://leetcode.com/problems/two-sum/"

type fakeCompleter struct {
	mu    sync.Mutex
	calls []domain.CompletionRequest
	resp  domain.Completion
	err   error
}

func (f *fakeCompleter) Name() string  { return "fake" }
func (f *fakeCompleter) Model() string { return "fake-model" }

func (f *fakeCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func reply(text string) domain.Completion {
	return domain.Completion{Choices: []domain.Choice{{Content: text}}}
}

type testServer struct {
	e        *echo.Echo
	llm      *fakeCompleter
	sessions *Sessions
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T, llm *fakeCompleter, mutate func(*RouterConfig)) *testServer {
	t.Helper()
	return newLimitedServer(t, llm, nil, mutate)
}

func newLimitedServer(t *testing.T, llm *fakeCompleter, limiter *Limiter, mutate func(*RouterConfig)) *testServer {
	t.Helper()
	cfg := RouterConfig{
		ExposeErrorDetails: true,
		CORSAllowOrigins:   []string{"*"},
		BodyLimit:          "1M",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	m := metrics.New()
	svc := usecase.NewHintService(llm, nil, m)
	sessions := NewSessions([]byte("test-secret"), time.Hour)
	e := NewRouter(cfg, RouterDeps{
		Hints:    NewHintHandler(svc, nil, cfg.ExposeErrorDetails),
		Sessions: sessions,
		Metrics:  m,
		Limiter:  limiter,
		Websocket: func(c echo.Context) error {
			return c.String(http.StatusOK, c.Get(SessionIDKey).(string))
		},
	})
	return &testServer{e: e, llm: llm, sessions: sessions, metrics: m}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestGenerateHintEndToEnd(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{resp: reply("Which structure gives O(1) lookups?")}, nil)

	rec := s.do(http.MethodPost, "/api/generate-hint",
		`{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":"What data structure?","conversationHistory":[]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["hint"] != "Which structure gives O(1) lookups?" {
		t.Errorf("hint = %v", body["hint"])
	}
	if body["problemUrl"] != twoSum {
		t.Errorf("problemUrl = %v", body["problemUrl"])
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected a request id header")
	}
}

func TestGenerateHintUpstreamFailure(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{err: errors.New("groq status 503: over capacity")}, nil)

	rec := s.do(http.MethodPost, "/api/generate-hint",
		`{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":"What data structure?","conversationHistory":[]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Failed to generate hint" {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] != "groq status 503: over capacity" {
		t.Errorf("details = %v", body["details"])
	}
}

func TestUpstreamFailureHidesDetailsInProduction(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{err: errors.New("secret internals")}, func(c *RouterConfig) {
		c.ExposeErrorDetails = false
	})

	rec := s.do(http.MethodPost, "/api/analyze-problem", `{"problemUrl":"https://leetcode.com/problems/two-sum/"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Failed to analyze problem" {
		t.Errorf("error = %v", body["error"])
	}
	if _, ok := body["details"]; ok {
		t.Errorf("details must be hidden, got %v", body["details"])
	}
}

func TestGenerateHintValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing question", `{"problemUrl":"https://leetcode.com/problems/two-sum/"}`, "Question is required"},
		{"empty question", `{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":""}`, "Question is required"},
		{"missing reference", `{"userQuestion":"hi","conversationHistory":[{"sender":"user","text":"earlier"}]}`, "Problem URL is required"},
		{"invalid reference", `{"problemUrl":"https://example.com/two-sum","userQuestion":"hi"}`, domain.ErrInvalidReference.Message},
		{"malformed json", `{"userQuestion":`, "Invalid request body"},
		{"bad history shape", `{"userQuestion":"hi","conversationHistory":"nope"}`, "Invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &fakeCompleter{resp: reply("unused")}
			s := newTestServer(t, llm, nil)

			rec := s.do(http.MethodPost, "/api/generate-hint", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := decode(t, rec)["error"]; got != tc.want {
				t.Errorf("error = %v, want %q", got, tc.want)
			}
			if llm.callCount() != 0 {
				t.Error("upstream must not be called")
			}
		})
	}
}

func TestGenerateHintReferenceFromHistory(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{resp: reply("ok")}, nil)

	rec := s.do(http.MethodPost, "/api/generate-hint", `{
		"userQuestion": "and now?",
		"conversationHistory": [
			{"sender":"user","text":"hi","problemUrl":"https://leetcode.com/problems/two-sum/","timestamp":"2024-05-01T10:00:00.000Z"},
			{"sender":"bot","text":"hello","problemUrl":"https://leetcode.com/problems/two-sum/","timestamp":"2024-05-01T10:00:03.000Z"}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["problemUrl"]; got != twoSum {
		t.Errorf("problemUrl = %v", got)
	}
}

func TestGenerateHintAcceptsAnyTimestampShape(t *testing.T) {
	for _, ts := range []string{`1714557600000`, `"2024-05-01 10:00"`, `null`, `{"seconds":1}`} {
		llm := &fakeCompleter{resp: reply("ok")}
		s := newTestServer(t, llm, nil)

		rec := s.do(http.MethodPost, "/api/generate-hint", `{
			"problemUrl": "https://leetcode.com/problems/two-sum/",
			"userQuestion": "next?",
			"conversationHistory": [{"sender":"user","text":"hi","timestamp":`+ts+`}]
		}`)
		if rec.Code != http.StatusOK {
			t.Errorf("timestamp %s: status = %d, body = %s", ts, rec.Code, rec.Body.String())
			continue
		}
		// The history turn still reaches the provider: system, turn, question.
		if n := len(llm.calls[0].Messages); n != 3 {
			t.Errorf("timestamp %s: %d messages sent upstream", ts, n)
		}
	}
}

func TestGenerateHintFallback(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{resp: domain.Completion{}}, nil)

	rec := s.do(http.MethodPost, "/api/generate-hint", `{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":"q"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["hint"]; got != usecase.FallbackHint {
		t.Errorf("hint = %v", got)
	}
}

func TestAnalyzeProblem(t *testing.T) {
	llm := &fakeCompleter{resp: reply("## Arrays and hashing")}
	s := newTestServer(t, llm, nil)

	rec := s.do(http.MethodPost, "/api/analyze-problem", `{"problemUrl":"https://leetcode.com/problems/two-sum/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["analysis"]; got != "## Arrays and hashing" {
		t.Errorf("analysis = %v", got)
	}

	invalid := []struct{ body, want string }{
		{`{}`, "Problem URL is required"},
		{`{"problemUrl":"leetcode.com/two-sum"}`, domain.ErrInvalidReference.Message},
	}
	for _, tc := range invalid {
		rec := s.do(http.MethodPost, "/api/analyze-problem", tc.body)
		if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != tc.want {
			t.Errorf("%s: status = %d, body = %s", tc.body, rec.Code, rec.Body.String())
		}
	}
	if llm.callCount() != 1 {
		t.Errorf("upstream calls = %d", llm.callCount())
	}
}

func TestResetConversation(t *testing.T) {
	llm := &fakeCompleter{}
	s := newTestServer(t, llm, nil)

	for _, body := range []string{"", `{}`, `{"anything":[1,2,3]}`, `not json`} {
		rec := s.do(http.MethodPost, "/api/reset-conversation", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != true || got["message"] != "Conversation reset" {
			t.Errorf("body %q: got %v", body, got)
		}
	}
	if llm.callCount() != 0 {
		t.Error("reset must not touch upstream")
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{}, nil)

	for _, tc := range []struct{ method, path, want string }{
		{http.MethodGet, "/api/nope", "Cannot GET /api/nope"},
		{http.MethodGet, "/api/generate-hint", "Cannot GET /api/generate-hint"},
		{http.MethodPost, "/nothing/here?x=1", "Cannot POST /nothing/here?x=1"},
	} {
		rec := s.do(tc.method, tc.path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d", tc.method, tc.path, rec.Code)
			continue
		}
		body := decode(t, rec)
		if body["error"] != "Endpoint not found" || body["message"] != tc.want {
			t.Errorf("%s %s: body = %v", tc.method, tc.path, body)
		}
	}
}

func TestTrailingSlash(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{}, nil)

	rec := s.do(http.MethodPost, "/api/reset-conversation/", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{}, func(c *RouterConfig) { c.ExposeErrorDetails = false })
	s.e.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := s.do(http.MethodGet, "/boom", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != "Something went wrong!" {
		t.Errorf("error = %v", body["error"])
	}
	if _, ok := body["message"]; ok {
		t.Error("message must be hidden when details are off")
	}
}

func TestBodyLimit(t *testing.T) {
	llm := &fakeCompleter{resp: reply("unused")}
	s := newTestServer(t, llm, func(c *RouterConfig) { c.BodyLimit = "1K" })

	question := strings.Repeat("a", 2048)
	rec := s.do(http.MethodPost, "/api/generate-hint",
		`{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":"`+question+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Request body too large" {
		t.Errorf("error = %v", got)
	}
	if llm.callCount() != 0 {
		t.Error("upstream must not be called")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeCompleter{resp: reply("ok")}, nil)

	rec := s.do(http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	health := decode(t, rec)
	if health["status"] != "healthy" || health["provider"] != "fake" || health["model"] != "fake-model" {
		t.Errorf("health = %v", health)
	}

	s.do(http.MethodPost, "/api/generate-hint", `{"problemUrl":"https://leetcode.com/problems/two-sum/","userQuestion":"q"}`)

	rec = s.do(http.MethodGet, "/metrics", "")
	out := rec.Body.String()
	for _, want := range []string{
		`dsa_assistant_http_requests_total{method="POST",route="/api/generate-hint",status="200"} 1`,
		`dsa_assistant_completions_total{op="generate hint",outcome="success",provider="fake"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestHumanizeWindow(t *testing.T) {
	for d, want := range map[time.Duration]string{
		15 * time.Minute: "15 minutes",
		time.Minute:      "1 minute",
		2 * time.Hour:    "2 hours",
		90 * time.Second: "1m30s",
	} {
		if got := humanizeWindow(d); got != want {
			t.Errorf("humanizeWindow(%s) = %q, want %q", d, got, want)
		}
	}
}

package domain

import "encoding/json"

// Turn is one message of the client-owned transcript. Timestamp is never
// read by the server and is kept raw, so any JSON value a client sends for
// it (ISO string, epoch number) is accepted.
type Turn struct {
	Sender     string          `json:"sender"`
	Text       string          `json:"text"`
	ProblemURL string          `json:"problemUrl,omitempty"`
	Timestamp  json.RawMessage `json:"timestamp,omitempty"`
	Type       string          `json:"type,omitempty"`
}

type HintRequest struct {
	ProblemURL string `json:"problemUrl"`
	Question   string `json:"userQuestion"`
	History    []Turn `json:"conversationHistory"`
}

type HintResponse struct {
	Hint       string `json:"hint"`
	ProblemURL string `json:"problemUrl"`
}

type AnalysisRequest struct {
	ProblemURL string `json:"problemUrl"`
}

type Analysis struct {
	Analysis string `json:"analysis"`
}

type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

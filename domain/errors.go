package domain

import "fmt"

// ValidationError rejects a request before any upstream call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrMissingQuestion = &ValidationError{
		Field:   "userQuestion",
		Message: "Question is required",
	}
	ErrMissingReference = &ValidationError{
		Field:   "problemUrl",
		Message: "Problem URL is required",
	}
	ErrInvalidReference = &ValidationError{
		Field:   "problemUrl",
		Message: "Invalid LeetCode URL. Please provide a URL in the format: https://leetcode.com/problems/problem-name/",
	}
)

// UpstreamError wraps a failed call to the completion provider.
type UpstreamError struct {
	Op       string
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s via %s: %v", e.Op, e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited          = errors.New("upstream rate limit reached")
	ErrUnauthorized         = errors.New("upstream authentication failed")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
	ErrCommandTimeout       = errors.New("command timed out")
	ErrToolUnavailable      = errors.New("external tool unavailable")
	ErrMalformedOutput      = errors.New("malformed tool output")
	ErrInvalidInput         = errors.New("invalid input")
)

// UpstreamError is a non-OK answer from an HTTP collaborator.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

const (
	SynthesisStage = "synthesis"
	PhonemeStage   = "phonemes"
)

// PipelineError aborts a whole lip-sync batch.
type PipelineError struct {
	Stage        string
	MessageIndex int
	Err          error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("lip-sync pipeline failed at %s stage for message %d: %v", e.Stage, e.MessageIndex, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

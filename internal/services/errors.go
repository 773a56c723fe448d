package services

import "errors"

// Error taxonomy for a conversational turn. Upstream failures (bad or missing
// JSON from the LLM, timeouts) are recovered locally with a degraded reply and
// never surface to the caller; persistence and validation failures do.
var (
	// ErrUpstreamParse means the LLM reply had no extractable, valid JSON.
	ErrUpstreamParse = errors.New("no valid JSON in model reply")

	// ErrPersistence wraps any store failure so handlers can respond with 502.
	ErrPersistence = errors.New("persistence failure")

	// ErrValidation marks a malformed request, rejected before any store or LLM call.
	ErrValidation = errors.New("invalid request")
)

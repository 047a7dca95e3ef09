package errors

import "errors"

var (
	ErrInvalidGameNotation = errors.New("game notation could not be parsed")

	ErrEngineUnavailable = errors.New("chess engine is not available")
	ErrEngineTimeout     = errors.New("chess engine did not respond in time")
	ErrInvalidPosition   = errors.New("invalid position")

	ErrNotConfigured  = errors.New("llm provider is not configured")
	ErrAuthentication = errors.New("llm provider rejected the api key")
	ErrRateLimited    = errors.New("llm provider rate limit exceeded")
	ErrProvider       = errors.New("llm provider request failed")
	ErrEmptyResponse  = errors.New("llm provider returned no content")

	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrInternal         = errors.New("internal error")
)

package domain

import "errors"

// Sentinel errors for component boundaries. Handlers map these to HTTP
// status codes; the search orchestrator converts anything else into a
// failed SearchResponse.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("document id already exists")
	ErrGenerationFailed = errors.New("could not generate a unique document id")
	ErrNotFound         = errors.New("not found")
	ErrTokenInvalid     = errors.New("download token is invalid")
	ErrTokenExpired     = errors.New("download token has expired")
)

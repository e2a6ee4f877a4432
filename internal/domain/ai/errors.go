package ai

import "errors"

// ErrUnconfigured indicates no provider credential was present at call time.
var ErrUnconfigured = errors.New("ai provider is not configured")

// ErrEmptyResult indicates the provider returned no content body.
var ErrEmptyResult = errors.New("ai provider returned no content")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

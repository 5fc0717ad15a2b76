package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyPlaylistID indicates that no playlist identifier was supplied or extracted.
	ErrEmptyPlaylistID = errors.New("empty playlist id")
	// ErrNoPlaylistMarker indicates that a URL carries no "list=" parameter.
	ErrNoPlaylistMarker = errors.New("url has no playlist marker")
	// ErrUnterminatedQuote indicates a query with an opening quote but no closing one.
	ErrUnterminatedQuote = errors.New("unterminated quoted phrase")
	// ErrEmptyPhrase indicates a query containing an empty quoted phrase.
	ErrEmptyPhrase = errors.New("empty quoted phrase")
	// ErrMalformedPayload indicates an upstream response that could not be decoded.
	ErrMalformedPayload = errors.New("malformed upstream payload")
	// ErrUpstreamStatus indicates a non-success upstream response.
	ErrUpstreamStatus = errors.New("upstream request failed")
	// ErrQuotaExceeded indicates that the API credential ran out of quota.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
	// ErrPlaylistNotFound indicates that the playlist does not exist or is not visible.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrInvalidCredential indicates that the API key was rejected.
	ErrInvalidCredential = errors.New("invalid api credential")
	// ErrPaginationLoop indicates that the upstream returned a cursor it already returned.
	ErrPaginationLoop = errors.New("pagination cursor repeated")
	// ErrTooManyPages indicates that the configured page limit was reached.
	ErrTooManyPages = errors.New("page limit reached")
)

// APIError is a non-success response of the upstream API.
type APIError struct {
	StatusCode int    `json:"code"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Reason != "" {
		return fmt.Sprintf("upstream %d %s: %s", e.StatusCode, e.Reason, msg)
	}
	return fmt.Sprintf("upstream %d: %s", e.StatusCode, msg)
}

// Is classifies the error by reason first, then by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUpstreamStatus:
		return true
	case ErrQuotaExceeded:
		return e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded"
	case ErrRateLimited:
		return e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" ||
			e.StatusCode == http.StatusTooManyRequests
	case ErrPlaylistNotFound:
		return e.Reason == "playlistNotFound" ||
			(e.Reason == "" && e.StatusCode == http.StatusNotFound)
	case ErrInvalidCredential:
		return e.Reason == "keyInvalid" || e.Reason == "keyExpired" ||
			e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// MarshalJSON implements json.Marshaler
func (e *APIError) MarshalJSON() ([]byte, error) {
	type Alias APIError
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// SyntaxError reports a malformed keyword query.
type SyntaxError struct {
	Query  string
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax: %v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v72/github"
)

// NetworkError means the remote host could not be reached or did not answer.
type NetworkError struct {
	Operation string
	Cause     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Operation, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// ConflictError is a write rejected because the supplied sha is not the
// file's current version.
type ConflictError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("write to %s rejected with status %d: %s", e.Path, e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// classify converts a go-github failure into the package's error taxonomy.
func classify(operation string, err error) error {
	var responseErr *github.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return &APIError{
			Operation:  operation,
			StatusCode: responseErr.Response.StatusCode,
			Message:    responseErr.Message,
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &APIError{Operation: operation, StatusCode: rateErr.Response.StatusCode, Message: rateErr.Message}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return &APIError{Operation: operation, StatusCode: abuseErr.Response.StatusCode, Message: abuseErr.Message}
	}

	return &NetworkError{Operation: operation, Cause: err}
}

// classifyWrite is classify plus conflict detection for content writes.
func classifyWrite(operation, path string, err error) error {
	classified := classify(operation, err)

	var apiErr *APIError
	if !errors.As(classified, &apiErr) {
		return classified
	}

	switch {
	case apiErr.StatusCode == http.StatusConflict:
		return &ConflictError{Path: path, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	case apiErr.StatusCode == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(apiErr.Message), "sha"):
		return &ConflictError{Path: path, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return classified
}

package pokeapi

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrShapeMismatch is returned when a JSON body decodes but lacks a
	// field the aggregation depends on.
	ErrShapeMismatch = errors.New("unexpected response shape")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents bodies that are not valid JSON.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassShape represents valid JSON with missing fields.
	ErrorClassShape ErrorClass = "shape"
)

// UpstreamError represents a failed upstream call with additional context.
type UpstreamError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("pokeapi %s error", e.ErrorClass)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status code to an error class.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// ClassOf returns the class of err, or "" if err is not an UpstreamError.
func ClassOf(err error) ErrorClass {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.ErrorClass
	}
	return ""
}

// Package directory provides a client for the external group directory API.
// This package centralizes all directory service interactions for the
// application.
package directory

import (
	"fmt"
	"time"
)

// API error codes with dedicated handling
const (
	errCodeAuthFailed      = 5
	errCodeTooManyRequests = 6
	errCodeRateLimit       = 29
)

// APIError represents an error returned by the directory API.
type APIError struct {
	Code    int
	Message string
	Method  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory API error: %s (code: %d, method: %s)", e.Message, e.Code, e.Method)
}

// RateLimitError represents a rate-limit or quota rejection. It is fatal to
// an in-flight resolve run: remaining batches must not be attempted.
type RateLimitError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("directory rate limit exceeded: %s (code: %d), retry after %v", e.Message, e.Code, e.RetryAfter)
}

// AuthError represents an authorization rejection; also fatal, since every
// remaining call would fail the same way.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("directory authorization failed: %s", e.Message)
}

// wireGroup is the directory API's group object
type wireGroup struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ScreenName  string `json:"screen_name"`
	MemberCount int    `json:"members_count"`
	IsClosed    int    `json:"is_closed"` // 0 open, 1 closed, 2 private
}

// wireError is the directory API's error envelope
type wireError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// apiResponse is the top-level directory API envelope: exactly one of
// Response and Error is set.
type apiResponse struct {
	Response []wireGroup `json:"response"`
	Error    *wireError  `json:"error"`
}

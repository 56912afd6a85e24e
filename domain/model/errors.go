package model

import (
	"errors"
	"fmt"
)

// AuthError means the credential used against a platform was invalid or
// expired. A single refresh-then-retry is the only automatic recovery.
type AuthError struct {
	Platform string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error: %s", e.Platform, e.Message)
}

// PlatformError is a non-auth 4xx/5xx from a third-party API. It is terminal
// for the current attempt; the next scheduled sweep is the retry mechanism.
type PlatformError struct {
	Platform string
	Code     string
	Message  string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s platform error %s: %s", e.Platform, e.Code, e.Message)
}

// IsAuthError reports whether err wraps an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

package gateerrors

import (
	"errors"
	"fmt"
)

// Common error types shared across the gateway. Credential exchange
// failures have their own taxonomy in the identity package.
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Onboarding errors
	ErrDraftNotFound  = errors.New("onboarding draft not found")
	ErrNoSessionToken = errors.New("no session token available")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

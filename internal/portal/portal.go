package portal

import (
	"errors"
	"fmt"
)

// AuthError indicates that the portal rejected the session token.
// It is returned when a 401 response is received; callers treat it as a
// hard authorization boundary, not a retryable failure.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// JobFilter controls query, ordering, and pagination for job searches.
type JobFilter struct {
	Query    string
	Location string

	// Ordering is a backend sort key such as "-posted_at" or "title".
	Ordering string

	Page     int
	PageSize int
}

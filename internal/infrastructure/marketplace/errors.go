package marketplace

import (
	"fmt"
	"net/http"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// maxResponseSize is the maximum allowed response size from platform APIs (10MB)
const maxResponseSize = 10 * 1024 * 1024

// statusClassifier translates an HTTP status code into the domain error
// taxonomy; each call picks the classifier matching what a 404 means there
type statusClassifier func(statusCode int, detail string) error

// classifyHTTPStatus is the general classification. Every adapter funnels its
// responses through a classifier so raw transport failures never leak past
// the package boundary.
//
//	401/403      -> ErrAuthExpired (reconnect)
//	429          -> ErrPlatformRateLimited (retryable)
//	5xx          -> ErrPlatformUnavailable (retryable)
//	other >= 400 -> ErrPlatformRequestFailed (permanent), including 404:
//	               outside a listing lookup a missing route or resource is a
//	               failed request, not a confirmed-gone listing
func classifyHTTPStatus(statusCode int, detail string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrAuthExpired, statusCode, detail)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrPlatformRateLimited, statusCode, detail)
	case statusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrPlatformUnavailable, statusCode, detail)
	default:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrPlatformRequestFailed, statusCode, detail)
	}
}

// classifyListingHTTPStatus is the classification for listing lookups, where
// a 404 is the platform confirming the listing no longer exists
func classifyListingHTTPStatus(statusCode int, detail string) error {
	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrListingNotFound, statusCode, detail)
	}
	return classifyHTTPStatus(statusCode, detail)
}

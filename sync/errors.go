// ABOUTME: Tagged error variants for the sync engine
// ABOUTME: Classifies sync token expiry from structured Google API errors
package sync

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

var (
	// ErrSyncTokenExpired means the stored sync token was rejected by the
	// source. Recoverable: callers fall back to a full sync.
	ErrSyncTokenExpired = errors.New("sync token expired")

	// ErrNoSyncToken means no sync token has ever been stored. Callers treat
	// it like expiry for fallback purposes, but it is logged distinctly.
	ErrNoSyncToken = errors.New("no sync token stored")

	// ErrNotFound means no live record matched a join-key lookup.
	ErrNotFound = errors.New("record not found")
)

// ValidationError reports a per-contact conversion failure.
type ValidationError struct {
	ResourceName string
	Field        string
	Reason       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid contact %s: %s: %s", e.ResourceName, e.Field, e.Reason)
}

// IsSyncTokenExpired reports whether err indicates the sync token is no
// longer valid. The People API signals this with an HTTP 410, or a 400
// carrying an EXPIRED_SYNC_TOKEN reason. Classification inspects the
// structured googleapi error, never free-text matching on unrelated
// failures.
func IsSyncTokenExpired(err error) bool {
	if errors.Is(err, ErrSyncTokenExpired) {
		return true
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	if apiErr.Code == 410 {
		return true
	}

	for _, item := range apiErr.Errors {
		if item.Reason == "EXPIRED_SYNC_TOKEN" || item.Reason == "expiredSyncToken" {
			return true
		}
	}

	for _, detail := range apiErr.Details {
		m, ok := detail.(map[string]interface{})
		if !ok {
			continue
		}
		if reason, ok := m["reason"].(string); ok && reason == "EXPIRED_SYNC_TOKEN" {
			return true
		}
	}

	return false
}

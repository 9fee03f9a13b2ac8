// ABOUTME: Contact feed fetcher with full and incremental sync
// ABOUTME: Manages sync token lifecycle and expiry fallback across paginated fetches
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaonmir/Nocioun-sub000/models"
	"google.golang.org/api/people/v1"
)

// TokenStore persists the single sync token between runs. Load returns
// ok=false when no token has been stored; it never errors for absence.
type TokenStore interface {
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
}

// Fetcher retrieves the set of contacts needing upsert or archival for one
// sync run.
type Fetcher struct {
	lister   ConnectionLister
	tokens   TokenStore
	pageSize int64
}

// NewFetcher creates a fetcher. pageSize is clamped to the provider cap.
func NewFetcher(lister ConnectionLister, tokens TokenStore, pageSize int64) *Fetcher {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Fetcher{lister: lister, tokens: tokens, pageSize: pageSize}
}

// fetchPages walks the contact feed from base until no continuation token
// remains, invoking visit for every page. It returns the last non-empty
// sync token seen; the authoritative token usually arrives only on the
// final page, but an early or repeated token is tolerated by keeping the
// most recent value.
func (f *Fetcher) fetchPages(ctx context.Context, base ListRequest, visit func(*ListPage) error) (string, error) {
	syncToken := ""
	req := base

	for {
		page, err := f.lister.ListConnections(ctx, req)
		if err != nil {
			return "", err
		}
		if page == nil {
			return syncToken, nil
		}

		if page.NextSyncToken != "" {
			syncToken = page.NextSyncToken
		}

		if err := visit(page); err != nil {
			return "", err
		}

		if page.NextPageToken == "" {
			return syncToken, nil
		}
		req.PageToken = page.NextPageToken
	}
}

// FullSync enumerates the entire contact collection and persists the fresh
// sync token issued alongside it. A full sync has no notion of deletions;
// every returned contact simply exists now.
func (f *Fetcher) FullSync(ctx context.Context) (*models.SyncResult, error) {
	result := &models.SyncResult{IsFullSync: true}

	syncToken, err := f.fetchPages(ctx, ListRequest{
		PageSize:         f.pageSize,
		RequestSyncToken: true,
	}, func(page *ListPage) error {
		result.People = append(result.People, page.People...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("full sync failed: %w", err)
	}

	if syncToken != "" {
		if err := f.tokens.Save(ctx, syncToken); err != nil {
			return nil, fmt.Errorf("failed to save sync token: %w", err)
		}
	}

	return result, nil
}

// IncrementalSync replays changes since the stored sync token. Contacts
// carrying a deletion tombstone are routed to DeletedPeople; everything
// else is an upsert candidate. Pages are deduplicated defensively by
// resource name, keeping the last-seen entry.
//
// Returns ErrNoSyncToken when no baseline exists and ErrSyncTokenExpired
// when the source rejects the stored token; any other failure propagates
// unchanged.
func (f *Fetcher) IncrementalSync(ctx context.Context) (*models.SyncResult, error) {
	syncToken, ok, err := f.tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync token: %w", err)
	}
	if !ok || syncToken == "" {
		return nil, ErrNoSyncToken
	}

	changed := make(map[string]*people.Person)
	deleted := make(map[string]*people.Person)
	var order []string

	// The original token is presented on every page; continuation is
	// driven by the page token alone.
	newToken, err := f.fetchPages(ctx, ListRequest{
		PageSize:  f.pageSize,
		SyncToken: syncToken,
	}, func(page *ListPage) error {
		for _, person := range page.People {
			name := person.ResourceName
			if _, seen := changed[name]; !seen {
				if _, seenDeleted := deleted[name]; !seenDeleted {
					order = append(order, name)
				}
			}
			delete(changed, name)
			delete(deleted, name)
			if isDeleted(person) {
				deleted[name] = person
			} else {
				changed[name] = person
			}
		}
		return nil
	})
	if err != nil {
		if IsSyncTokenExpired(err) {
			return nil, fmt.Errorf("incremental sync: %w", ErrSyncTokenExpired)
		}
		return nil, fmt.Errorf("incremental sync failed: %w", err)
	}

	result := &models.SyncResult{IsFullSync: false}
	for _, name := range order {
		if person, ok := changed[name]; ok {
			result.People = append(result.People, person)
		} else if person, ok := deleted[name]; ok {
			result.DeletedPeople = append(result.DeletedPeople, person)
		}
	}

	if newToken != "" {
		if err := f.tokens.Save(ctx, newToken); err != nil {
			return nil, fmt.Errorf("failed to save sync token: %w", err)
		}
	}

	return result, nil
}

// Sync runs an incremental sync when a usable token exists, falling back to
// a full sync only when the token is absent or expired. Any other error
// propagates unchanged: a network or auth failure must never be masked by
// an expensive full resync.
func (f *Fetcher) Sync(ctx context.Context) (*models.SyncResult, error) {
	result, err := f.IncrementalSync(ctx)
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, ErrNoSyncToken):
		fmt.Println("  → No sync token stored, running full sync")
	case errors.Is(err, ErrSyncTokenExpired):
		fmt.Println("  → Sync token expired, running full sync")
	default:
		return nil, err
	}

	return f.FullSync(ctx)
}

// isDeleted reports whether the source marked the contact as a tombstone.
func isDeleted(person *people.Person) bool {
	return person.Metadata != nil && person.Metadata.Deleted
}

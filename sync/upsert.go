// ABOUTME: Record upsert engine reconciling contacts against the Notion database
// ABOUTME: Enforces at most one live page per resource name; archival is the only deletion
package sync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"google.golang.org/api/people/v1"
)

// PageAPI is the narrow capability the upsert engine needs from the Notion
// database. The production implementation lives in the notion package;
// tests use fakes.
//
// QueryByJoinKey must only match live (non-archived) pages, so an archived
// page is never silently resurrected by an update.
type PageAPI interface {
	QueryByJoinKey(ctx context.Context, resourceName string) (pageID string, found bool, err error)
	CreatePage(ctx context.Context, properties notionapi.Properties, icon *notionapi.Icon) (pageID string, err error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties, icon *notionapi.Icon) error
	ArchivePage(ctx context.Context, pageID string) error
}

// Upserter reconciles converted contacts against the target database.
type Upserter struct {
	pages     PageAPI
	converter *Converter
}

// NewUpserter creates an upsert engine over the given page API.
func NewUpserter(pages PageAPI, converter *Converter) *Upserter {
	return &Upserter{pages: pages, converter: converter}
}

// Upsert converts the contact and creates or updates its page. The
// find-then-branch pair runs fresh for every call, never cached across a
// run, so repeated upserts for one resource name cannot create a second
// live page. Updates send only mapped properties, leaving manually-set
// properties alone, and send no icon directive when the conversion
// produced none so an existing icon is preserved.
func (u *Upserter) Upsert(ctx context.Context, person *people.Person) (created bool, conv *Conversion, err error) {
	conv, err = u.converter.Convert(person)
	if err != nil {
		return false, nil, err
	}

	pageID, found, err := u.pages.QueryByJoinKey(ctx, person.ResourceName)
	if err != nil {
		return false, conv, fmt.Errorf("failed to query by join key: %w", err)
	}

	if found {
		if err := u.pages.UpdatePage(ctx, pageID, conv.Properties, conv.Icon); err != nil {
			return false, conv, fmt.Errorf("failed to update page: %w", err)
		}
		return false, conv, nil
	}

	if _, err := u.pages.CreatePage(ctx, conv.Properties, conv.Icon); err != nil {
		return false, conv, fmt.Errorf("failed to create page: %w", err)
	}

	return true, conv, nil
}

// ArchiveByResourceName soft-deletes the live page for a resource name.
// Returns ErrNotFound when no live page matches; archived pages never
// match, so archival is terminal for this engine's lookups.
func (u *Upserter) ArchiveByResourceName(ctx context.Context, resourceName string) error {
	pageID, found, err := u.pages.QueryByJoinKey(ctx, resourceName)
	if err != nil {
		return fmt.Errorf("failed to query by join key: %w", err)
	}
	if !found {
		return fmt.Errorf("no live page for %s: %w", resourceName, ErrNotFound)
	}

	if err := u.pages.ArchivePage(ctx, pageID); err != nil {
		return fmt.Errorf("failed to archive page: %w", err)
	}

	return nil
}

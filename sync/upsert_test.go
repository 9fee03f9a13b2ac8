package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage is one stored page in the fake database.
type fakePage struct {
	id         string
	joinKey    string
	properties notionapi.Properties
	icon       *notionapi.Icon
	archived   bool
	updates    int
}

// fakePageAPI simulates a Notion database keyed by join key. Queries never
// return archived pages, matching the real API's behavior.
type fakePageAPI struct {
	pages  []*fakePage
	nextID int
}

func (f *fakePageAPI) QueryByJoinKey(ctx context.Context, resourceName string) (string, bool, error) {
	for _, page := range f.pages {
		if page.joinKey == resourceName && !page.archived {
			return page.id, true, nil
		}
	}
	return "", false, nil
}

func (f *fakePageAPI) CreatePage(ctx context.Context, properties notionapi.Properties, icon *notionapi.Icon) (string, error) {
	f.nextID++
	page := &fakePage{
		id:         fmt.Sprintf("page-%d", f.nextID),
		properties: properties,
		icon:       icon,
	}
	if rt, ok := properties[JoinKeyProperty].(notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
		page.joinKey = rt.RichText[0].Text.Content
	}
	f.pages = append(f.pages, page)
	return page.id, nil
}

func (f *fakePageAPI) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties, icon *notionapi.Icon) error {
	for _, page := range f.pages {
		if page.id == pageID {
			page.properties = properties
			page.updates++
			if icon != nil {
				page.icon = icon
			}
			return nil
		}
	}
	return fmt.Errorf("page %s not found", pageID)
}

func (f *fakePageAPI) ArchivePage(ctx context.Context, pageID string) error {
	for _, page := range f.pages {
		if page.id == pageID {
			page.archived = true
			return nil
		}
	}
	return fmt.Errorf("page %s not found", pageID)
}

func (f *fakePageAPI) livePages(resourceName string) int {
	count := 0
	for _, page := range f.pages {
		if page.joinKey == resourceName && !page.archived {
			count++
		}
	}
	return count
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	p := samplePerson()
	created, _, err := upserter.Upsert(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, api.pages, 1)

	joinKey := api.pages[0].properties[JoinKeyProperty].(notionapi.RichTextProperty)
	assert.Equal(t, "people/abc123", joinKey.RichText[0].Text.Content)

	// Second upsert with changed data updates the same page, never
	// creating a duplicate.
	p.EmailAddresses[0].Value = "alice@new.example"
	created, _, err = upserter.Upsert(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, api.pages, 1)
	assert.Equal(t, 1, api.pages[0].updates)
	assert.Equal(t, 1, api.livePages("people/abc123"))

	email := api.pages[0].properties["Email"].(notionapi.EmailProperty)
	assert.Equal(t, "alice@new.example", email.Email)
}

func TestUpsertJoinKeyInvariant(t *testing.T) {
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	for i := 0; i < 5; i++ {
		_, _, err := upserter.Upsert(context.Background(), samplePerson())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, api.livePages("people/abc123"),
		"at most one live page per resource name")
}

func TestUpsertConversionErrorEmitsNothing(t *testing.T) {
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	p := samplePerson()
	p.Names = nil

	_, _, err := upserter.Upsert(context.Background(), p)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, api.pages, "no page touched on conversion failure")
}

func TestUpsertPreservesIconWhenConversionHasNone(t *testing.T) {
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	_, _, err := upserter.Upsert(context.Background(), samplePerson())
	require.NoError(t, err)
	require.NotNil(t, api.pages[0].icon)

	p := samplePerson()
	p.Photos = nil
	_, _, err = upserter.Upsert(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, api.pages[0].icon, "existing icon kept when update carries none")
}

func TestArchiveByResourceName(t *testing.T) {
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	_, _, err := upserter.Upsert(context.Background(), samplePerson())
	require.NoError(t, err)

	err = upserter.ArchiveByResourceName(context.Background(), "people/abc123")
	require.NoError(t, err)
	assert.True(t, api.pages[0].archived, "archival is a soft delete")

	// Archival is terminal for lookups: the page physically exists but is
	// never re-found.
	_, found, err := api.QueryByJoinKey(context.Background(), "people/abc123")
	require.NoError(t, err)
	assert.False(t, found)

	// A second archival reports NotFound.
	err = upserter.ArchiveByResourceName(context.Background(), "people/abc123")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestArchiveUnknownResourceName(t *testing.T) {
	upserter := NewUpserter(&fakePageAPI{}, NewConverter(DefaultMappings()))

	err := upserter.ArchiveByResourceName(context.Background(), "people/ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertAfterArchiveCreatesNewPage(t *testing.T) {
	// Re-creating a contact with the same resource name after archival is
	// expected to produce a second physical page; the invariant is one
	// live page per live resource name, not one page ever.
	api := &fakePageAPI{}
	upserter := NewUpserter(api, NewConverter(DefaultMappings()))

	_, _, err := upserter.Upsert(context.Background(), samplePerson())
	require.NoError(t, err)
	require.NoError(t, upserter.ArchiveByResourceName(context.Background(), "people/abc123"))

	created, _, err := upserter.Upsert(context.Background(), samplePerson())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, api.pages, 2)
	assert.Equal(t, 1, api.livePages("people/abc123"))
}

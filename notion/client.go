// ABOUTME: Notion database client for contact pages
// ABOUTME: Implements join-key queries, page create/update/archive, and schema ensure
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/kaonmir/Nocioun-sub000/models"
)

// Client wraps the Notion API for one destination database. It exposes
// only the operations the sync engine needs, so the engine stays testable
// with fakes and independent of SDK details.
type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
	joinKey    string
}

// NewClient creates a client bound to one database. joinKey is the
// property name holding the Google resource name.
func NewClient(token, databaseID, joinKey string) *Client {
	return &Client{
		api:        notionapi.NewClient(notionapi.Token(token)),
		databaseID: notionapi.DatabaseID(databaseID),
		joinKey:    joinKey,
	}
}

// QueryByJoinKey returns the live page whose join-key property equals
// resourceName. Notion database queries never return archived pages, so an
// archived page cannot be re-found and resurrected.
func (c *Client) QueryByJoinKey(ctx context.Context, resourceName string) (string, bool, error) {
	response, err := c.api.Database.Query(ctx, c.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: c.joinKey,
			RichText: &notionapi.TextFilterCondition{Equals: resourceName},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to query database: %w", err)
	}

	for _, page := range response.Results {
		if !page.Archived {
			return string(page.ID), true, nil
		}
	}

	return "", false, nil
}

// CreatePage creates a page in the database with the given properties and
// optional external icon.
func (c *Client) CreatePage(ctx context.Context, properties notionapi.Properties, icon *notionapi.Icon) (string, error) {
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: properties,
		Icon:       icon,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}

	return string(page.ID), nil
}

// UpdatePage updates the given properties on an existing page. A nil icon
// sends no icon directive, so the page keeps whatever icon it already has.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties, icon *notionapi.Icon) error {
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
		Icon:       icon,
	})
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}

	return nil
}

// ArchivePage soft-deletes a page. Hard deletion is never issued, so the
// workspace trash and recovery semantics still apply.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	_, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{},
		Archived:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to archive page: %w", err)
	}

	return nil
}

// EnsureSchema adds any mapped property missing from the database schema,
// plus the join-key property, using the types the mapping declares.
// Existing properties are left untouched.
func (c *Client) EnsureSchema(ctx context.Context, mappings []models.FieldMapping) error {
	database, err := c.api.Database.Get(ctx, c.databaseID)
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	missing := notionapi.PropertyConfigs{}
	for _, mapping := range mappings {
		if mapping.Name == "" {
			continue
		}
		if _, exists := database.Properties[mapping.Name]; exists {
			continue
		}
		config, err := propertyConfig(mapping.Type)
		if err != nil {
			return fmt.Errorf("mapping %q: %w", mapping.Key, err)
		}
		missing[mapping.Name] = config
	}

	if _, exists := database.Properties[c.joinKey]; !exists {
		missing[c.joinKey] = notionapi.RichTextPropertyConfig{
			Type: notionapi.PropertyConfigTypeRichText,
		}
	}

	if len(missing) == 0 {
		return nil
	}

	_, err = c.api.Database.Update(ctx, c.databaseID, &notionapi.DatabaseUpdateRequest{
		Properties: missing,
	})
	if err != nil {
		return fmt.Errorf("failed to update database schema: %w", err)
	}

	return nil
}

func propertyConfig(mappingType string) (notionapi.PropertyConfig, error) {
	switch mappingType {
	case "title":
		// Notion databases always have exactly one title property; it is
		// never created here, only renamed by the user.
		return nil, fmt.Errorf("title property must already exist on the database")
	case "rich_text":
		return notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText}, nil
	case "email":
		return notionapi.EmailPropertyConfig{Type: notionapi.PropertyConfigTypeEmail}, nil
	case "phone_number":
		return notionapi.PhoneNumberPropertyConfig{Type: notionapi.PropertyConfigTypePhoneNumber}, nil
	case "date":
		return notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate}, nil
	case "url":
		return notionapi.URLPropertyConfig{Type: notionapi.PropertyConfigTypeURL}, nil
	case "select":
		return notionapi.SelectPropertyConfig{Type: notionapi.PropertyConfigTypeSelect}, nil
	default:
		return nil, fmt.Errorf("unsupported property type %q", mappingType)
	}
}

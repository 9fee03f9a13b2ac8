// ABOUTME: Google People API client for contacts sync
// ABOUTME: Wraps the connections list call behind a narrow interface with bounded retries
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// personFields is the field mask requested for every contact fetch. It
// covers everything a FieldMapping can route plus the photo used for icons.
const personFields = "names,emailAddresses,phoneNumbers,organizations,addresses,birthdays,biographies,photos,metadata"

// maxPageSize is the People API cap on connections.list page size.
const maxPageSize = 1000

// ListRequest describes one page request against the contact feed.
type ListRequest struct {
	PageSize         int64
	PageToken        string
	SyncToken        string
	RequestSyncToken bool
}

// ListPage is one page of the contact feed.
type ListPage struct {
	People        []*people.Person
	NextPageToken string
	NextSyncToken string
}

// ConnectionLister is the narrow capability the fetcher needs from the
// People API. Tests substitute fakes; production uses PeopleClient.
type ConnectionLister interface {
	ListConnections(ctx context.Context, req ListRequest) (*ListPage, error)
}

// PeopleClient implements ConnectionLister over the People API service,
// retrying rate-limit and server errors a bounded number of times.
type PeopleClient struct {
	service    *people.Service
	maxRetries uint64
}

// NewPeopleClient creates an authenticated People API client.
func NewPeopleClient(ctx context.Context, token *oauth2.Token) (*PeopleClient, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	config := NewOAuthConfig()
	httpClient := config.Client(ctx, token)

	service, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &PeopleClient{service: service, maxRetries: 3}, nil
}

// ListConnections fetches one page of the contact feed.
func (c *PeopleClient) ListConnections(ctx context.Context, req ListRequest) (*ListPage, error) {
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var page *ListPage
	operation := func() error {
		call := c.service.People.Connections.List("people/me").
			PersonFields(personFields).
			PageSize(pageSize).
			Context(ctx)

		if req.PageToken != "" {
			call = call.PageToken(req.PageToken)
		}
		if req.SyncToken != "" {
			call = call.SyncToken(req.SyncToken)
		}
		if req.RequestSyncToken {
			call = call.RequestSyncToken(true)
		}

		response, err := call.Do()
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		page = &ListPage{
			People:        response.Connections,
			NextPageToken: response.NextPageToken,
			NextSyncToken: response.NextSyncToken,
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	return page, nil
}

// isRetryable reports whether the error is a rate limit or server-side
// failure worth retrying. Sync token expiry is never retryable.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		// Transport-level failure (connection reset, timeout).
		return true
	}
	if IsSyncTokenExpired(err) {
		return false
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}

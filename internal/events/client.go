// Package events is the typed client for the event, RSVP, review and dashboard endpoints.
package events

import (
	"context"
	"fmt"
	"net/url"

	"event-management/client/internal/events/domain"
)

// API is the subset of the gateway the events client calls.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error)
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

// Client calls the events endpoints.
type Client struct {
	api API
}

// NewClient returns a Client over api.
func NewClient(api API) *Client {
	return &Client{api: api}
}

func eventPath(id int) string  { return fmt.Sprintf("/events/%d/", id) }
func reviewPath(id int) string { return fmt.Sprintf("/reviews/%d/", id) }

// Query returns the query string for f. Empty fields are omitted.
func Query(f domain.ListFilter) url.Values {
	return f.Values()
}

// List returns the events visible to the viewer, normalizing paginated and bare bodies.
func (c *Client) List(ctx context.Context, f domain.ListFilter) ([]domain.Event, error) {
	body, err := c.api.GetRaw(ctx, "/events/", Query(f))
	if err != nil {
		return nil, fmt.Errorf("events: list: %w", err)
	}
	return DecodeList[domain.Event](body)
}

// Get returns one event with its reviews and RSVPs.
func (c *Client) Get(ctx context.Context, id int) (*domain.Event, error) {
	var ev domain.Event
	if err := c.api.Get(ctx, eventPath(id), nil, &ev); err != nil {
		return nil, fmt.Errorf("events: get %d: %w", id, err)
	}
	return &ev, nil
}

// Create validates in and creates an event organized by the viewer.
func (c *Client) Create(ctx context.Context, in domain.EventInput) (*domain.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var ev domain.Event
	if err := c.api.Post(ctx, "/events/", in, &ev); err != nil {
		return nil, fmt.Errorf("events: create: %w", err)
	}
	return &ev, nil
}

// Update validates in and patches event id.
func (c *Client) Update(ctx context.Context, id int, in domain.EventInput) (*domain.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var ev domain.Event
	if err := c.api.Patch(ctx, eventPath(id), in, &ev); err != nil {
		return nil, fmt.Errorf("events: update %d: %w", id, err)
	}
	return &ev, nil
}

// Delete removes event id.
func (c *Client) Delete(ctx context.Context, id int) error {
	if err := c.api.Delete(ctx, eventPath(id)); err != nil {
		return fmt.Errorf("events: delete %d: %w", id, err)
	}
	return nil
}

// RSVP records the viewer's attendance answer.
func (c *Client) RSVP(ctx context.Context, id int, status domain.RSVPStatus) (*domain.RSVPResult, error) {
	var res domain.RSVPResult
	body := map[string]string{"status": string(status)}
	if err := c.api.Post(ctx, eventPath(id)+"rsvp/", body, &res); err != nil {
		return nil, fmt.Errorf("events: rsvp %d: %w", id, err)
	}
	return &res, nil
}

// Reviews lists the reviews of event id, newest first.
func (c *Client) Reviews(ctx context.Context, id int) ([]domain.Review, error) {
	body, err := c.api.GetRaw(ctx, eventPath(id)+"reviews/", nil)
	if err != nil {
		return nil, fmt.Errorf("events: reviews %d: %w", id, err)
	}
	return DecodeList[domain.Review](body)
}

// SubmitReview validates in and adds the viewer's review to event id.
func (c *Client) SubmitReview(ctx context.Context, id int, in domain.ReviewInput) (*domain.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var rv domain.Review
	if err := c.api.Post(ctx, eventPath(id)+"reviews/", in, &rv); err != nil {
		return nil, fmt.Errorf("events: submit review %d: %w", id, err)
	}
	return &rv, nil
}

// UpdateReview validates in and patches review id.
func (c *Client) UpdateReview(ctx context.Context, id int, in domain.ReviewInput) (*domain.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var rv domain.Review
	if err := c.api.Patch(ctx, reviewPath(id), in, &rv); err != nil {
		return nil, fmt.Errorf("events: update review %d: %w", id, err)
	}
	return &rv, nil
}

// DeleteReview removes review id.
func (c *Client) DeleteReview(ctx context.Context, id int) error {
	if err := c.api.Delete(ctx, reviewPath(id)); err != nil {
		return fmt.Errorf("events: delete review %d: %w", id, err)
	}
	return nil
}

// Dashboard returns the viewer's organized and attended events.
func (c *Client) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var d domain.Dashboard
	if err := c.api.Get(ctx, "/dashboard/", nil, &d); err != nil {
		return nil, fmt.Errorf("events: dashboard: %w", err)
	}
	return &d, nil
}

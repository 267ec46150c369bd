package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"event-management/client/internal/security"
	"event-management/client/internal/storage"
)

var (
	// ErrNoRefreshToken is returned when a refresh is needed but none is stored.
	ErrNoRefreshToken = errors.New("gateway: no refresh token")
	// ErrRefreshFailed is returned when the token exchange did not yield an access token.
	ErrRefreshFailed = errors.New("gateway: token refresh failed")
)

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refresh returns a usable access token to replace stale, exchanging the refresh token at most
// once for every caller holding the same stale token. A caller arriving after another already
// replaced stale gets the stored token without a second exchange.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshes.Do("refresh:"+security.Fingerprint(stale), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		if current := c.stored(ctx, storage.KeyAccessToken); current != stale {
			if current == "" {
				return "", ErrNoRefreshToken
			}
			return current, nil
		}
		refreshToken := c.stored(ctx, storage.KeyRefreshToken)
		if refreshToken == "" {
			return "", ErrNoRefreshToken
		}
		access, err := c.exchange(ctx, refreshToken)
		if err != nil {
			c.refreshFailureCount.Add(ctx, 1)
			log.Printf("gateway: refresh %s: %v", security.Fingerprint(refreshToken), err)
			c.expire(ctx)
			return "", err
		}
		c.refreshCount.Add(ctx, 1)
		return access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange posts the refresh token on a bare request: no bearer header and no 401 handling.
// The new tokens are persisted before listeners are told.
func (c *Client) exchange(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", contentTypeJSON)
	hreq.Header.Set("Accept", contentTypeJSON)
	hreq.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.roundTrip(hreq, http.MethodPost, RefreshPath)
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, newAPIError(http.MethodPost, RefreshPath, resp))
	}
	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrRefreshFailed, err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRefreshFailed)
	}

	if err := c.store.Set(ctx, storage.KeyAccessToken, out.Access); err != nil {
		return "", fmt.Errorf("gateway: persist access token: %w", err)
	}
	if out.Refresh != "" {
		if err := c.store.Set(ctx, storage.KeyRefreshToken, out.Refresh); err != nil {
			return "", fmt.Errorf("gateway: persist refresh token: %w", err)
		}
	}
	for _, l := range c.snapshotListeners() {
		l.TokenRefreshed(out.Access, out.Refresh)
	}
	return out.Access, nil
}

// expire clears every persisted session key and tells listeners the session is gone.
func (c *Client) expire(ctx context.Context) {
	if err := c.store.Delete(context.WithoutCancel(ctx), storage.SessionKeys...); err != nil {
		log.Printf("gateway: clear session: %v", err)
	}
	for _, l := range c.snapshotListeners() {
		l.SessionExpired()
	}
}

// Package client is the Go SDK for the aldea portal API: a typed HTTP
// client plus a realtime layer that keeps local stores in sync with the
// server's change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/aldea-dev/aldea/core"
)

// API is the typed HTTP client.
type API struct {
	base string
	http *http.Client

	mutex sync.RWMutex
	token string
}

// NewAPI creates an API client for the given base URL (no trailing slash).
func NewAPI(base string) *API {
	return &API{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the access token used on subsequent calls.
func (a *API) SetToken(token string) {
	a.mutex.Lock()
	a.token = token
	a.mutex.Unlock()
}

func (a *API) accessToken() string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.token
}

func call[T any](ctx context.Context, a *API, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, errors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return zero, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := a.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return zero, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	var envelope core.ResponseBase[T]
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to decode response (status %d)", resp.StatusCode)
	}
	if envelope.Status != "ok" {
		return zero, errors.Errorf("api error (status %d): %s", resp.StatusCode, envelope.Error)
	}

	return envelope.Content, nil
}

// Login signs in. When the result demands tenant selection the caller
// follows up with SwitchTenant before touching tenant-scoped endpoints.
func (a *API) Login(ctx context.Context, email, password string) (core.LoginResult, error) {
	result, err := call[core.LoginResult](ctx, a, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return core.LoginResult{}, err
	}
	a.SetToken(result.Session.AccessToken)
	return result, nil
}

// SwitchTenant scopes the session to one tenant.
func (a *API) SwitchTenant(ctx context.Context, tenantID string) (core.Session, error) {
	session, err := call[core.Session](ctx, a, http.MethodPost, "/api/v1/auth/tenant", map[string]string{
		"tenantId": tenantID,
	})
	if err != nil {
		return core.Session{}, err
	}
	a.SetToken(session.AccessToken)
	return session, nil
}

// Refresh rotates the token pair.
func (a *API) Refresh(ctx context.Context, refreshToken string) (core.Session, error) {
	session, err := call[core.Session](ctx, a, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return core.Session{}, err
	}
	a.SetToken(session.AccessToken)
	return session, nil
}

// Logout revokes the refresh token and drops the local access token.
func (a *API) Logout(ctx context.Context, refreshToken string) error {
	_, err := call[any](ctx, a, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	})
	a.SetToken("")
	return err
}

// CreateGuest registers a guest pre-authorization.
func (a *API) CreateGuest(ctx context.Context, draft core.GuestDraft) (Guest, error) {
	return call[Guest](ctx, a, http.MethodPost, "/api/v1/guests", draft)
}

// GetGuest fetches one guest.
func (a *API) GetGuest(ctx context.Context, id string) (Guest, error) {
	return call[Guest](ctx, a, http.MethodGet, "/api/v1/guests/"+id, nil)
}

// ListGuests fetches a page of guests.
func (a *API) ListGuests(ctx context.Context, query core.GuestQuery) (core.Page[Guest], error) {
	values := url.Values{}
	if query.Status != "" {
		values.Set("status", query.Status)
	}
	if query.StartDate != "" {
		values.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		values.Set("endDate", query.EndDate)
	}
	if query.Search != "" {
		values.Set("search", query.Search)
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(query.PageSize))
	}

	path := "/api/v1/guests"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return call[core.Page[Guest]](ctx, a, http.MethodGet, path, nil)
}

// UpdateGuest patches a pending guest.
func (a *API) UpdateGuest(ctx context.Context, id string, patch core.GuestPatch) (Guest, error) {
	return call[Guest](ctx, a, http.MethodPut, "/api/v1/guests/"+id, patch)
}

// DeleteGuest removes a pending or denied guest.
func (a *API) DeleteGuest(ctx context.Context, id string) error {
	_, err := call[any](ctx, a, http.MethodDelete, "/api/v1/guests/"+id, nil)
	return err
}

// UpdateGuestStatus moves a guest through its lifecycle.
func (a *API) UpdateGuestStatus(ctx context.Context, id, status string) (Guest, error) {
	return call[Guest](ctx, a, http.MethodPut, "/api/v1/guests/"+id+"/status", map[string]string{
		"status": status,
	})
}

// GuestStats fetches the per-status counters.
func (a *API) GuestStats(ctx context.Context) (core.GuestStats, error) {
	return call[core.GuestStats](ctx, a, http.MethodGet, "/api/v1/guests/stats", nil)
}

// Dashboard fetches the aggregated dashboard counters.
func (a *API) Dashboard(ctx context.Context) (core.DashboardStats, error) {
	return call[core.DashboardStats](ctx, a, http.MethodGet, "/api/v1/stats/dashboard", nil)
}

// Notifications fetches the newest inbox entries.
func (a *API) Notifications(ctx context.Context, limit int) ([]Notification, error) {
	path := "/api/v1/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return call[[]Notification](ctx, a, http.MethodGet, path, nil)
}

// MarkNotificationRead marks one inbox entry read.
func (a *API) MarkNotificationRead(ctx context.Context, id string) (Notification, error) {
	return call[Notification](ctx, a, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil)
}

// ActiveAnnouncements fetches the currently visible notices.
func (a *API) ActiveAnnouncements(ctx context.Context) ([]Announcement, error) {
	return call[[]Announcement](ctx, a, http.MethodGet, "/api/v1/announcements", nil)
}

// MyHousehold fetches the caller's household.
func (a *API) MyHousehold(ctx context.Context) (core.Household, error) {
	return call[core.Household](ctx, a, http.MethodGet, "/api/v1/households/mine", nil)
}

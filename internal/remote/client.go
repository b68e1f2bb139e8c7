// Package remote is the HTTP client for the operations server: event
// delivery, roster and HR notice downloads, and the reachability probe.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

// TokenFunc returns the current bearer token, or "" when there is none.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks JSON to the operations server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	syncPath   string
	token      TokenFunc
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient builds a Client. An empty syncPath means /api/offline-sync.
func NewClient(httpClient *http.Client, baseURL, syncPath string, token TokenFunc) *Client {
	if syncPath == "" {
		syncPath = "/api/offline-sync"
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		syncPath:   "/" + strings.TrimLeft(syncPath, "/"),
		token:      token,
	}
}

// Deliver posts one outbox item. A 2xx answer means the server accepted
// (or already had) the event. 401/403 yield apperr.ErrAuthSync; any other
// failure is an *apperr.SyncError.
func (c *Client) Deliver(ctx context.Context, item models.OutboxItem) error {
	body := models.SyncRequest{
		ClientEventID: item.ClientEventID,
		Type:          item.Type,
		Payload:       item.Payload,
	}
	return c.do(ctx, http.MethodPost, c.syncPath, body, nil)
}

// FetchStaff downloads a venue's roster.
func (c *Client) FetchStaff(ctx context.Context, localID string) ([]models.StaffRow, error) {
	var out []models.StaffRow
	if err := c.do(ctx, http.MethodGet, "/staff/by-local/"+url.PathEscape(localID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchNotices downloads the HR notices of a venue for one work date.
func (c *Client) FetchNotices(ctx context.Context, localID, workDate string) ([]models.HrNoticeRow, error) {
	q := url.Values{"work_date": {workDate}}
	var out []models.HrNoticeRow
	if err := c.do(ctx, http.MethodGet, "/hr-notices/by-local/"+url.PathEscape(localID)+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Probe reports whether the server answers at all. Any HTTP response,
// whatever its status, counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.SyncError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &apperr.SyncError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.ErrAuthSync
	}

	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &apperr.SyncError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
}

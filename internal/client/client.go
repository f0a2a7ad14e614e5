// Package client reads dashboards from a remote server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/invitation"
	"go-dashboards/internal/features/query"
	"go-dashboards/pkg/filters"
)

// Client implements viewer.DataAccess against a server.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a client. authToken is the bearer JWT and may be empty.
func New(baseURL, authToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non 2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return dashboard.ErrNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return dashboard.ErrAccessDenied
	}
	return nil
}

type dataRequest struct {
	Filters filters.Values `json:"filters"`
}

func (c *Client) GetDashboard(ctx context.Context, key, token string) (*dashboard.Structure, error) {
	var st dashboard.Structure
	path := "/api/dashboards/" + url.PathEscape(key) + "/structure"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetSectionData(ctx context.Context, sectionID string, values filters.Values, token string) (*query.SectionData, error) {
	var sd query.SectionData
	path := "/api/sections/" + url.PathEscape(sectionID) + "/data"
	if err := c.do(ctx, http.MethodPost, path, token, dataRequest{Filters: values}, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

func (c *Client) GetWidgetData(ctx context.Context, widgetID string, values filters.Values) (any, error) {
	var resp struct {
		Data any `json:"data"`
	}
	path := "/api/widgets/" + url.PathEscape(widgetID) + "/data"
	if err := c.do(ctx, http.MethodPost, path, "", dataRequest{Filters: values}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ResolveInvitation returns the dashboard key an invitation token opens
// without counting a use; the use is charged when the structure is loaded.
// An unusable token yields an *invitation.InvalidError carrying the reason.
func (c *Client) ResolveInvitation(ctx context.Context, token string) (string, error) {
	var resp struct {
		DashboardKey string `json:"dashboard_key"`
	}
	err := c.do(ctx, http.MethodPost, "/api/invitations/resolve", "", map[string]string{"token": token}, &resp)
	if err != nil {
		return "", err
	}
	return resp.DashboardKey, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error  string            `json:"error"`
		Status invitation.Status `json:"status"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}
	if payload.Status != "" && payload.Status != invitation.StatusValid {
		return &invitation.InvalidError{Status: payload.Status}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}

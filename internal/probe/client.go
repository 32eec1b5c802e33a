package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotReady is returned when the dashboard reports no loaded classifier.
	ErrNotReady = errors.New("dashboard not ready")
	// ErrLoginFailed is returned when no session cookie was issued.
	ErrLoginFailed = errors.New("login failed")
)

// Client talks to a running dashboard with a cookie session.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Ready checks GET /readyz.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/readyz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to dashboard: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}
	return nil
}

// Login opens a session for email. The session cookie is kept in the jar.
func (c *Client) Login(ctx context.Context, email string) error {
	form := url.Values{"email": {email}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if loc := resp.Header.Get("Location"); resp.StatusCode != http.StatusFound || loc != "/dashboard" {
		return fmt.Errorf("%w: status %d, location %q", ErrLoginFailed, resp.StatusCode, loc)
	}
	return nil
}

// Assess submits s and decodes the reply.
func (c *Client) Assess(ctx context.Context, s Sample) (Outcome, error) {
	out := Outcome{Sample: s}
	body, err := json.Marshal(s)
	if err != nil {
		return out, fmt.Errorf("failed to marshal sample: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/assess", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", s.RequestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}

	out.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		out.Err = gjson.GetBytes(raw, "code").String()
		return out, fmt.Errorf("assess: status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "message").String())
	}
	if !gjson.ValidBytes(raw) {
		return out, fmt.Errorf("assess: malformed reply")
	}

	res := gjson.GetManyBytes(raw, "id", "label", "base_label", "probability", "recommendation.tier", "flipped")
	out.ID = res[0].String()
	out.Label = res[1].String()
	out.BaseLabel = res[2].String()
	out.Probability = res[3].Float()
	out.Tier = res[4].String()
	out.Flipped = res[5].Bool()
	return out, nil
}

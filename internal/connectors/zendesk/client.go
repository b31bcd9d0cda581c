package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// HeaderDeviceUUID scopes Sync API calls to one device.
	HeaderDeviceUUID = "X-Basecrm-Device-UUID"
)

// Client performs Zendesk Sell API requests with rate limiting.
// It is safe for concurrent use by every stream of a tap.
type Client struct {
	http        *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *RateLimiter
}

// NewClient creates a client authenticating with the configured access token.
func NewClient(ctx context.Context, cfg *Config) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.AccessToken},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = cfg.Timeout
	if tc.Timeout <= 0 {
		tc.Timeout = DefaultTimeout
	}
	return NewClientWithHTTPClient(tc, cfg)
}

// NewClientWithHTTPClient creates a client with a custom http.Client.
// The http.Client is responsible for authentication.
func NewClientWithHTTPClient(httpClient *http.Client, cfg *Config) *Client {
	return &Client{
		http:        httpClient,
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond),
	}
}

// ValidateCredentials checks the token by fetching the authenticated user.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/v2/users/self", nil, nil, "")
	return err
}

// ListPage fetches one page of a collection endpoint.
func (c *Client) ListPage(ctx context.Context, path string, page, perPage int, extra url.Values) (*listEnvelope, error) {
	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	_, body, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	var env listEnvelope
	if err := decode(body, &env); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return &env, nil
}

// GetOne fetches a single-resource endpoint such as /v2/accounts/self.
func (c *Client) GetOne(ctx context.Context, path string) (*itemEnvelope, error) {
	_, body, err := c.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	var env itemEnvelope
	if err := decode(body, &env); err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &env, nil
}

// StartSync opens a sync session for device.
// ok is false when the server has nothing to sync (204 No Content).
func (c *Client) StartSync(ctx context.Context, device domain.DeviceID) (session string, ok bool, err error) {
	status, body, err := c.do(ctx, http.MethodPost, "/v2/sync/start", nil, nil, device)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return "", false, nil
	}
	var env sessionEnvelope
	if err := decode(body, &env); err != nil {
		return "", false, fmt.Errorf("start sync: %w", err)
	}
	if env.Data.ID == "" {
		return "", false, nil
	}
	return env.Data.ID, true, nil
}

// FetchQueue reads the next batch of the main queue of session.
// An empty result means the queue is drained.
func (c *Client) FetchQueue(ctx context.Context, device domain.DeviceID, session string) ([]itemEnvelope, error) {
	path := "/v2/sync/" + url.PathEscape(session) + "/queues/main"
	status, body, err := c.do(ctx, http.MethodGet, path, nil, nil, device)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return nil, nil
	}
	var env listEnvelope
	if err := decode(body, &env); err != nil {
		return nil, fmt.Errorf("fetch queue: %w", err)
	}
	return env.Items, nil
}

// Ack acknowledges delivered queue items so they are not sent again.
func (c *Client) Ack(ctx context.Context, device domain.DeviceID, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	var req ackRequest
	req.Data.AckKeys = keys
	_, _, err := c.do(ctx, http.MethodPost, "/v2/sync/ack", nil, req, device)
	return err
}

// CustomFields lists the custom fields defined for a resource type
// (contact, lead or deal).
func (c *Client) CustomFields(ctx context.Context, resource string) ([]customField, error) {
	var fields []customField
	path := "/v2/" + resource + "/custom_fields"
	for page := 1; ; page++ {
		env, err := c.ListPage(ctx, path, page, 100, nil)
		if err != nil {
			return nil, err
		}
		for _, item := range env.Items {
			raw, err := json.Marshal(item.Data)
			if err != nil {
				return nil, err
			}
			var f customField
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, fmt.Errorf("%w: custom field: %w", ErrUnexpectedResponse, err)
			}
			fields = append(fields, f)
		}
		if env.Meta.Links.NextPage == "" || len(env.Items) == 0 {
			return fields, nil
		}
	}
}

// do performs one request. Non-2xx responses become *APIError or
// *RateLimitError; network failures are wrapped as transient.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, device domain.DeviceID) (int, []byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !device.IsZero() {
		req.Header.Set(HeaderDeviceUUID, device.String())
	}

	logger.Debug("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, fmt.Errorf("%s %s: %w: %w", method, path, domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%s %s: read body: %w: %w", method, path, domain.ErrTransient, err)
	}

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
			URL:        req.URL.String(),
			Sync:       !device.IsZero(),
		}
	}
	return resp.StatusCode, data, nil
}

// decode unmarshals a response body keeping numbers as json.Number.
func decode(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// errorMessage extracts the first error message of a Sell error body.
func errorMessage(status int, body []byte) string {
	var env struct {
		Errors []struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
				Details string `json:"details"`
			} `json:"error"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		e := env.Errors[0].Error
		switch {
		case e.Message != "" && e.Details != "":
			return e.Message + ": " + e.Details
		case e.Message != "":
			return e.Message
		case e.Code != "":
			return e.Code
		}
	}
	return http.StatusText(status)
}

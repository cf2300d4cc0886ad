package tumblr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tumdlr/pkg/auth"
	"tumdlr/pkg/errors"
	"tumdlr/pkg/logger"
	"tumdlr/pkg/retry"
)

// Client is an HTTP client for the Tumblr API and media hosts
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	account    *auth.Account
	baseURL    string
	retrier    *retry.Config
	logger     logger.Logger
}

// NewClient creates a new Tumblr client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = log

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "tumdlr/0.1",
			"Accept":          "application/json,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL: BaseURL,
		retrier: retryCfg,
		logger:  log,
	}
}

// SetBaseURL overrides the API host, used by tests
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetAccount attaches a credential context to outbound requests.
// The account is opaque to the engine; no session negotiation happens.
func (c *Client) SetAccount(account *auth.Account) {
	c.account = account
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if c.account != nil {
		req.SetBasicAuth(c.account.Email, c.account.Password)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			return &errors.Error{
				Type:    errors.ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// GetJSON performs a GET request and decodes the JSON response.
// Transient failures (network, 429, 5xx) are retried with backoff;
// asset downloads do not go through this path.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	cfg := *c.retrier
	cfg.Context = ctx

	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &errors.Error{
				Type:    errors.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
			}
		}

		resp, err := c.doRequest(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errors.Error{
				Type:    errors.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
			}
		}

		if err := json.Unmarshal(body, target); err != nil {
			bodyPreview := string(body)
			if len(bodyPreview) > 200 {
				bodyPreview = bodyPreview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": bodyPreview,
			})
			return &errors.Error{
				Type:    errors.ErrorTypeParsing,
				Message: fmt.Sprintf("failed to parse JSON: %v", err),
				Code:    resp.StatusCode,
			}
		}

		return nil
	}, &cfg)
}

// Fetch retrieves an asset as a byte stream. The caller owns the
// returned body and must close it. The reported size is -1 when the
// server does not announce a Content-Length.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, 0, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// FetchPosts retrieves one page of a blog's post feed
func (c *Client) FetchPosts(ctx context.Context, blog string, offset, limit int) (*APIResponse, error) {
	url := c.baseURL + GetPostsPath(blog, offset, limit)

	c.logger.DebugWithFields("fetching posts page", map[string]interface{}{
		"blog":   blog,
		"offset": offset,
		"limit":  limit,
	})

	var response APIResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		c.logger.ErrorWithFields("failed to fetch posts page", map[string]interface{}{
			"blog":   blog,
			"offset": offset,
			"error":  err.Error(),
		})
		return nil, err
	}

	return &response, nil
}

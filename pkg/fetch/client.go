package fetch

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	errs "wallscraper/pkg/errors"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/retry"
)

// Client is the HTTP client shared by all image sources. It holds no
// rate-limiting state; callers pace their own requests.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a fetch client with the given timeout and user agent.
func NewClient(timeout time.Duration, userAgent string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"Accept":          "application/json,image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
		maxRetries: 2,
		logger:     log,
	}
}

// SetHeader sets a custom header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetMaxRetries overrides the transient-error retry count.
func (c *Client) SetMaxRetries(n int) {
	if n >= 0 {
		c.maxRetries = n
	}
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Newf(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// doRequestWithRetry retries transient failures only. Permanent HTTP errors
// surface immediately.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	cfg := &retry.Config{
		MaxAttempts: c.maxRetries + 1,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Logger:  c.logger,
	}

	return retry.DoWithResult(func() (*http.Response, error) {
		resp, err := c.doRequest(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errs.Newf(errs.ErrorTypeServerError, resp.StatusCode, "server returned status %d", resp.StatusCode)
		}

		return resp, nil
	}, cfg)
}

// Get performs a GET request with retry on transient failures.
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	return c.doRequestWithRetry(req)
}

// GetJSON performs a GET request with the given extra headers and decodes
// the JSON response into target.
func (c *Client) GetJSON(url string, headers map[string]string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errs.Newf(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Newf(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.Newf(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// FetchImage downloads raw image bytes from the given URL. Responses whose
// Content-Type is not an image are rejected without reading the body.
func (c *Client) FetchImage(imageURL string) ([]byte, error) {
	resp, err := c.Get(imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") &&
		!strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, errs.Newf(errs.ErrorTypeContentType, resp.StatusCode,
			"expected image content, got %q", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeNetwork, 0, "failed to download image: %v", err)
	}

	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":  imageURL,
		"size": len(data),
	})

	return data, nil
}

func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, "authentication required", resp.StatusCode)
	case http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case http.StatusTooManyRequests:
		return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errs.New(errs.ErrorTypeServerError, "server error", resp.StatusCode)
	default:
		if resp.StatusCode >= 400 {
			return errs.Newf(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
		}
		return nil
	}
}

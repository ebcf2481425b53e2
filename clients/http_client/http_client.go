package http_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

var client = &http.Client{Timeout: 30 * time.Second}

// SetTimeout changes the timeout of every outgoing provider request. Call it during
// startup, before any source is used.
func SetTimeout(timeout time.Duration) {
	client = &http.Client{Timeout: timeout}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to retrieve %s, status code: %d", e.URL, e.StatusCode)
}

// BuildURL appends the query parameters to base.
func BuildURL(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// GetJSON fetches rawURL and decodes the JSON body into dst.
func GetJSON(ctx context.Context, rawURL string, headers map[string]string, dst interface{}) error {
	body, err := GetPage(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		zap.L().Error("Failed to unmarshal response", zap.String("url", redact(rawURL)), zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetPage fetches rawURL and hands the open body to the caller, who must close it.
func GetPage(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the URL: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: redact(rawURL), StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// redact drops the query string, which carries API keys for most providers.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

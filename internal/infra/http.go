package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent mimics a desktop browser. Several market-data endpoints
// reject requests carrying Go's default agent string.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// httpClient is the shared client for all outbound requests.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// HTTPError describes a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// DoGet performs a GET request with the given headers and returns the
// response body and status code. The caller must close the body.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, resp.StatusCode, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, resp.StatusCode, nil
}

// GetBytes performs a GET request and returns the full response body.
func GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, _, err := DoGet(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

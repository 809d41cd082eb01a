package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxHTTPBody caps response reads so a misbehaving endpoint cannot exhaust
// memory through a task source.
const maxHTTPBody = 32 << 20 // 32MB

// HTTPJSON returns a fetcher that GETs url and decodes the response body as
// JSON into T. A nil client uses http.DefaultClient. Non-2xx responses are
// errors.
//
//	quotes := reactive.NewTask(source.HTTPJSON[[]Quote](nil, "https://api.example.com/quotes"))
func HTTPJSON[T any](client *http.Client, url string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		data, err := fetchHTTP(ctx, client, url, "application/json")
		if err != nil {
			return zero, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return zero, fmt.Errorf("decode %s: %w", url, err)
		}
		return v, nil
	}
}

// HTTPBytes returns a fetcher that GETs url and returns the raw body.
func HTTPBytes(client *http.Client, url string) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		return fetchHTTP(ctx, client, url, "")
	}
}

func fetchHTTP(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

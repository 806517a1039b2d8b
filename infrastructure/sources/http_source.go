package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"medianav/logging"
)

// HTTPOptions tunes the HTTP page client.
type HTTPOptions struct {
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

// StatusError is a non-2xx answer from the page API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPFetcher requests `<baseURL>?page=N&pageSize=M` and decodes a PageResponse.
// Transport errors and 5xx/429 answers are retried; other 4xx answers are not.
type HTTPFetcher[T any] struct {
	client  *http.Client
	baseURL string
	opts    HTTPOptions
	logger  *logging.Logger
}

// NewHTTPFetcher creates a fetcher for baseURL.
func NewHTTPFetcher[T any](baseURL string, opts HTTPOptions) *HTTPFetcher[T] {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	return &HTTPFetcher[T]{
		client:  &http.Client{Timeout: opts.Timeout},
		baseURL: baseURL,
		opts:    opts,
		logger:  logging.Default().WithComponent("http_fetcher"),
	}
}

// Fetch implements FetchFunc.
func (f *HTTPFetcher[T]) Fetch(ctx context.Context, page, pageSize int) (PageResponse[T], error) {
	endpoint, err := url.Parse(f.baseURL)
	if err != nil {
		return PageResponse[T]{}, fmt.Errorf("parse base url: %w", err)
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	endpoint.RawQuery = q.Encode()
	target := endpoint.String()

	return retry.DoWithData(
		func() (PageResponse[T], error) {
			return f.get(ctx, target)
		},
		retry.Context(ctx),
		retry.Attempts(f.opts.RetryAttempts),
		retry.Delay(f.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("Retrying page request", "url", target, "attempt", n+1, "error", err)
		}),
	)
}

func (f *HTTPFetcher[T]) get(ctx context.Context, target string) (PageResponse[T], error) {
	var out PageResponse[T]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return out, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return out, statusErr
		}
		return out, retry.Unrecoverable(statusErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, retry.Unrecoverable(fmt.Errorf("decode page response: %w", err))
	}
	return out, nil
}

// NewHTTPSource wires an HTTPFetcher into a RemoteSource.
func NewHTTPSource[T any](baseURL string, pageSize int, opts HTTPOptions) *RemoteSource[PageResponse[T], T] {
	fetcher := NewHTTPFetcher[T](baseURL, opts)
	return NewRemoteSource(pageSize, fetcher.Fetch, IndexResponse[T](pageSize))
}

// IsStatus reports whether err carries an HTTP status error with code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

package bots

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// DefaultHeaders mimic a desktop browser. Brotli is left out of
// accept-encoding because the collector only decodes gzip.
var DefaultHeaders = map[string]string{
	"accept":          "*/*",
	"accept-encoding": "gzip",
	"accept-language": "en-US,en;q=0.9",
	"referer":         "https://www.google.com",
	"user-agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Page is a downloaded results page.
type Page struct {
	URL       *url.URL
	Body      []byte
	FetchedAt time.Time
}

// Fetcher downloads a single page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// RetryPolicy bounds how transient fetch failures are retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy retries twice, starting at half a second.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
}

// CollyFetcher fetches pages with a colly collector per request, sharing one
// transport between them.
type CollyFetcher struct {
	headers   map[string]string
	timeout   time.Duration
	retry     RetryPolicy
	transport http.RoundTripper
	now       func() time.Time
	log       logrus.FieldLogger
}

// FetcherOption customizes a CollyFetcher.
type FetcherOption func(*CollyFetcher)

// WithHeaders replaces the request header set.
func WithHeaders(h map[string]string) FetcherOption {
	return func(f *CollyFetcher) { f.headers = h }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) FetcherOption {
	return func(f *CollyFetcher) { f.timeout = d }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) FetcherOption {
	return func(f *CollyFetcher) { f.retry = p }
}

// WithTransport sets the round tripper shared by all requests.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *CollyFetcher) { f.transport = rt }
}

// WithClock sets the clock used to stamp fetched pages.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *CollyFetcher) { f.now = now }
}

// NewCollyFetcher returns a fetcher with the browser header set and the
// default retry policy.
func NewCollyFetcher(log logrus.FieldLogger, opts ...FetcherOption) *CollyFetcher {
	f := &CollyFetcher{
		headers: DefaultHeaders,
		timeout: 30 * time.Second,
		retry:   DefaultRetryPolicy,
		transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL, retrying transport errors, 429 and 5xx responses.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	var page *Page
	attempt := 0

	op := func() error {
		attempt++
		p, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			page = p
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.log.WithFields(logrus.Fields{
			"url":     rawURL,
			"attempt": attempt,
			"wait":    wait,
		}).WithError(err).Warn("retrying fetch")
	}

	if err := backoff.RetryNotify(op, f.backoff(ctx), notify); err != nil {
		return nil, err
	}
	return page, nil
}

func (f *CollyFetcher) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retry.InitialDelay
	b.MaxInterval = f.retry.MaxDelay
	b.MaxElapsedTime = 0

	retries := f.retry.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(f.transport)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.headers {
			r.Headers.Set(k, v)
		}
	})

	var (
		page   *Page
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:       r.Request.URL,
			Body:      r.Body,
			FetchedAt: f.now(),
		}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	f.log.WithField("url", rawURL).Debug("fetching page")
	if err := c.Visit(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Status: status, Err: err}
	}
	if page == nil {
		return nil, &FetchError{URL: rawURL, Err: errors.New("empty response")}
	}
	return page, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch {
	case fe.Status == http.StatusTooManyRequests, fe.Status >= 500:
		return true
	case fe.Status != 0:
		return false
	}

	var netErr net.Error
	if errors.As(fe.Err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(fe.Err, &urlErr)
}

package bots

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var anchor = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func cardHTML(headline, posted, body, link string) string {
	return fmt.Sprintf(`<div class="NewsArticle">
  <h4 class="s-title"><a href="%[4]s">%[1]s</a></h4>
  <span class="s-time">· %[2]s</span>
  <p class="s-desc">%[3]s...</p>
  <a class="thmb" href="%[4]s" title="%[1]s"><img src="x.png"></a>
</div>`, headline, posted, body, link)
}

func pageHTML(next string, cards ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"results\">")
	for _, c := range cards {
		b.WriteString(c)
	}
	b.WriteString("</div>")
	if next != "" {
		fmt.Fprintf(&b, `<div class="compPagination"><a class="next" href="%s">Next</a></div>`, html.EscapeString(next))
	}
	b.WriteString("</body></html>")
	return b.String()
}

// stubFetcher serves canned pages keyed by URL and records every request.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
	now   time.Time
	slow  map[string]time.Duration
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages, now: anchor}
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	s.mu.Lock()
	delay := s.slow[rawURL]
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &FetchError{URL: rawURL, Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.calls = append(s.calls, rawURL)
	body, ok := s.pages[rawURL]
	if !ok {
		return nil, &FetchError{URL: rawURL, Status: 404, Err: errors.New("Not Found")}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return &Page{URL: u, Body: []byte(body), FetchedAt: s.now}, nil
}

func (s *stubFetcher) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SearchURL = "https://news.example/search?p=%s"
	cfg.PageDelay = 0
	return cfg
}

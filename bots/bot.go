package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type NewsAgency string

const (
	YahooAgency NewsAgency = "Yahoo"
)

// DefaultYahooSearchURL is the news search endpoint; %s receives the
// query-escaped term.
const DefaultYahooSearchURL = "https://news.search.yahoo.com/search?p=%s"

type Extractor interface {
	Crawl(ctx context.Context, req CrawlRequest) (CrawlResult, error)
}

// Config tunes a bot's crawl.
type Config struct {
	SearchURL   string
	Selectors   Selectors
	PageDelay   time.Duration
	MaxPages    int
	TermTimeout time.Duration
	Workers     int
}

// DefaultConfig waits a second between pages and crawls one term at a time.
func DefaultConfig() Config {
	return Config{
		SearchURL:   DefaultYahooSearchURL,
		Selectors:   YahooSelectors,
		PageDelay:   time.Second,
		MaxPages:    50,
		TermTimeout: 2 * time.Minute,
		Workers:     1,
	}
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	if strings.Count(c.SearchURL, "%s") != 1 {
		return fmt.Errorf("search url %q must contain exactly one %%s", c.SearchURL)
	}
	if c.Selectors.Card == "" || c.Selectors.Anchor == "" {
		return fmt.Errorf("card and anchor selectors are required")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay must not be negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

type bot struct {
	agency  NewsAgency
	cfg     Config
	fetcher Fetcher
	log     logrus.FieldLogger
}

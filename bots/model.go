package bots

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Article is one kept news item.
type Article struct {
	Headline string    `json:"headline" bson:"headline"`
	PostedAt time.Time `json:"posted" bson:"posted"`
	Body     string    `json:"text" bson:"text"`
	Link     string    `json:"link" bson:"link"`
}

// card is what a single result card yields before its post time is resolved.
type card struct {
	Headline string
	Posted   string
	Body     string
	Link     string
}

func (c card) article(postedAt time.Time) Article {
	return Article{
		Headline: c.Headline,
		PostedAt: postedAt,
		Body:     c.Body,
		Link:     c.Link,
	}
}

// CrawlRequest is the input of a crawl. Build it with NewCrawlRequest.
type CrawlRequest struct {
	Terms      []string
	From       time.Time
	MaxPerTerm int
}

// NewCrawlRequest trims and deduplicates terms, keeping their order.
// maxPerTerm of 0 means no cap.
func NewCrawlRequest(terms []string, from time.Time, maxPerTerm int) (CrawlRequest, error) {
	if maxPerTerm < 0 {
		return CrawlRequest{}, fmt.Errorf("%w: negative max per term %d", ErrInvalidRequest, maxPerTerm)
	}

	seen := make(map[string]struct{}, len(terms))
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		normalized = append(normalized, t)
	}
	if len(normalized) == 0 {
		return CrawlRequest{}, fmt.Errorf("%w: no search terms", ErrInvalidRequest)
	}

	return CrawlRequest{
		Terms:      normalized,
		From:       from,
		MaxPerTerm: maxPerTerm,
	}, nil
}

// TermResult holds what one term's crawl produced. Err is nil when
// pagination ended normally.
type TermResult struct {
	Term     string
	Articles []Article
	Pages    int
	Err      error
}

// CrawlResult maps each requested term to its result.
type CrawlResult map[string]*TermResult

// Articles returns the kept articles per term.
func (r CrawlResult) Articles() map[string][]Article {
	out := make(map[string][]Article, len(r))
	for term, tr := range r {
		out[term] = tr.Articles
	}
	return out
}

// Failed returns the terms whose crawl ended with an error, sorted.
func (r CrawlResult) Failed() []string {
	var failed []string
	for term, tr := range r {
		if tr.Err != nil {
			failed = append(failed, term)
		}
	}
	sort.Strings(failed)
	return failed
}

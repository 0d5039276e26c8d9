package bots

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Yahoo struct {
	bot
}

func NewYahooBot(cfg Config, fetcher Fetcher, log logrus.FieldLogger) *Yahoo {
	return &Yahoo{
		bot: bot{
			agency:  YahooAgency,
			cfg:     cfg,
			fetcher: fetcher,
			log:     log.WithField("agency", YahooAgency),
		},
	}
}

// Crawl runs every term of req on a pool of cfg.Workers goroutines. A failed
// term keeps its partial articles and its error in the result; other terms
// are unaffected. The returned error is only set when ctx itself ended.
func (y *Yahoo) Crawl(ctx context.Context, req CrawlRequest) (CrawlResult, error) {
	if len(req.Terms) == 0 {
		return nil, fmt.Errorf("%w: no search terms", ErrInvalidRequest)
	}

	var (
		mu     sync.Mutex
		result = make(CrawlResult, len(req.Terms))
	)

	var g errgroup.Group
	g.SetLimit(y.cfg.Workers)
	for _, term := range req.Terms {
		g.Go(func() error {
			tr := y.crawlTerm(ctx, term, req)

			mu.Lock()
			result[term] = tr
			mu.Unlock()
			return ctx.Err()
		})
	}
	err := g.Wait()

	return result, err
}

func (y *Yahoo) searchURL(term string) string {
	return fmt.Sprintf(y.cfg.SearchURL, url.QueryEscape(term))
}

func (y *Yahoo) crawlTerm(ctx context.Context, term string, req CrawlRequest) *TermResult {
	if y.cfg.TermTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.cfg.TermTimeout)
		defer cancel()
	}

	log := y.log.WithField("term", term)
	log.Info("collecting articles")

	tr := &TermResult{Term: term, Articles: []Article{}}
	links := make(map[string]struct{})
	visited := make(map[string]struct{})
	limiter := rate.NewLimiter(rate.Every(y.cfg.PageDelay), 1)

	next := y.searchURL(term)
	for next != "" {
		if req.MaxPerTerm > 0 && len(tr.Articles) >= req.MaxPerTerm {
			log.WithField("max", req.MaxPerTerm).Debug("article cap reached")
			break
		}
		if y.cfg.MaxPages > 0 && tr.Pages >= y.cfg.MaxPages {
			log.WithField("max_pages", y.cfg.MaxPages).Warn("page cap reached")
			break
		}
		if _, ok := visited[next]; ok {
			log.WithField("url", next).Warn("next page already visited")
			break
		}
		visited[next] = struct{}{}

		if err := limiter.Wait(ctx); err != nil {
			tr.Err = waitError(ctx, err)
			break
		}

		page, err := y.fetcher.Fetch(ctx, next)
		if err != nil {
			tr.Err = err
			log.WithError(err).WithField("url", next).Error("fetch failed")
			break
		}
		tr.Pages++

		parsed, err := parsePage(page.Body, page.URL, y.cfg.Selectors)
		if err != nil {
			tr.Err = err
			log.WithError(err).WithField("url", next).Error("unreadable page")
			break
		}
		for _, skipped := range parsed.Skipped {
			log.WithError(skipped).Debug("skipping card")
		}

		kept := y.keep(tr, parsed.Cards, page, req, links, log)
		log.WithFields(logrus.Fields{
			"page":  tr.Pages,
			"cards": len(parsed.Cards),
			"kept":  kept,
		}).Debug("page scraped")

		next = parsed.Next
	}

	if tr.Err != nil && errors.Is(tr.Err, context.DeadlineExceeded) {
		log.WithField("timeout", y.cfg.TermTimeout).Warn("term deadline exceeded")
	}
	log.WithField("total", len(tr.Articles)).Info("total articles")
	return tr
}

// waitError maps a limiter failure onto the context error. The limiter
// refuses early, before ctx expires, when the next slot lies past the deadline.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// keep applies the time, recency, duplicate and cap filters in that order
// and appends the survivors to tr.
func (y *Yahoo) keep(tr *TermResult, cards []card, page *Page, req CrawlRequest, links map[string]struct{}, log logrus.FieldLogger) int {
	kept := 0
	for _, c := range cards {
		postedAt, err := ParseRelativeTime(c.Posted, page.FetchedAt)
		if err != nil {
			log.WithError(err).WithField("link", c.Link).Debug("dropping article")
			continue
		}
		if postedAt.Before(req.From) {
			continue
		}
		if _, ok := links[c.Link]; ok {
			continue
		}
		if req.MaxPerTerm > 0 && len(tr.Articles) >= req.MaxPerTerm {
			continue
		}

		links[c.Link] = struct{}{}
		tr.Articles = append(tr.Articles, c.article(postedAt))
		kept++
	}
	return kept
}

package bots

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors describes where a search results page keeps its cards.
type Selectors struct {
	Card     string
	Headline string
	Posted   string
	Body     string
	Anchor   string
	Next     string
}

// YahooSelectors matches news.search.yahoo.com result pages.
var YahooSelectors = Selectors{
	Card:     "div.NewsArticle",
	Headline: "h4.s-title",
	Posted:   "span.s-time",
	Body:     "p.s-desc",
	Anchor:   "a.thmb",
	Next:     "a.next",
}

// parsedPage is the structural content of one results page.
type parsedPage struct {
	Cards   []card
	Skipped []error
	Next    string
}

// parsePage extracts the cards and the next page link from body. Cards that
// miss their link anchor are reported in Skipped and never partially emitted.
func parsePage(body []byte, base *url.URL, sel Selectors) (parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return parsedPage{}, fmt.Errorf("parse page: %w", err)
	}

	var page parsedPage
	doc.Find(sel.Card).Each(func(i int, s *goquery.Selection) {
		c, err := parseCard(i, s, base, sel)
		if err != nil {
			page.Skipped = append(page.Skipped, err)
			return
		}
		page.Cards = append(page.Cards, c)
	})

	if href, ok := doc.Find(sel.Next).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		page.Next = resolveLink(base, href)
	}

	return page, nil
}

func parseCard(i int, s *goquery.Selection, base *url.URL, sel Selectors) (card, error) {
	anchor := s.Find(sel.Anchor).First()
	href, ok := anchor.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return card{}, &ParseError{Index: i, Reason: "missing link anchor"}
	}

	headline := strings.TrimSpace(s.Find(sel.Headline).First().Text())
	if title, ok := anchor.Attr("title"); ok && strings.TrimSpace(title) != "" {
		headline = strings.TrimSpace(title)
	}
	if headline == "" {
		return card{}, &ParseError{Index: i, Reason: "missing headline"}
	}

	posted := strings.TrimSpace(strings.ReplaceAll(s.Find(sel.Posted).First().Text(), "·", ""))
	body := strings.TrimSpace(strings.ReplaceAll(s.Find(sel.Body).First().Text(), "...", ""))

	return card{
		Headline: headline,
		Posted:   posted,
		Body:     body,
		Link:     resolveLink(base, href),
	}, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

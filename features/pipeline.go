package features

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTrainTable = "news_sentiment_traindata"
	DefaultTestTable  = "news_sentiment_testdata"
)

// DefaultTerms are the tickers the weekly feature job crawls.
var DefaultTerms = []string{"AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"}

// ErrNoRows is returned when nothing is left to store after balancing.
var ErrNoRows = errors.New("no feature rows")

// Store persists feature rows into a named table.
type Store interface {
	InsertFeatures(ctx context.Context, table string, rows []Row) (int, error)
}

// Summary counts rows at each pipeline stage.
type Summary struct {
	Labelled int
	Balanced int
	Train    int
	Test     int
}

type Pipeline struct {
	Labeler      sentiment.Labeler
	Store        Store
	TrainTable   string
	TestTable    string
	TestFraction float64
	Rand         *rand.Rand
	Log          logrus.FieldLogger
}

// NewPipeline uses the default tables and an 80/20 split.
func NewPipeline(labeler sentiment.Labeler, store Store, rng *rand.Rand, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		Labeler:      labeler,
		Store:        store,
		TrainTable:   DefaultTrainTable,
		TestTable:    DefaultTestTable,
		TestFraction: 0.2,
		Rand:         rng,
		Log:          log,
	}
}

// Run labels the articles, balances and splits them, and writes both tables.
func (p *Pipeline) Run(ctx context.Context, articles map[string][]bots.Article) (Summary, error) {
	var sum Summary

	rows, err := p.label(ctx, articles)
	if err != nil {
		return sum, err
	}
	sum.Labelled = len(rows)

	balanced := Balance(rows, p.Rand)
	sum.Balanced = len(balanced)
	if len(balanced) == 0 {
		return sum, ErrNoRows
	}

	train, test := Split(balanced, p.TestFraction, p.Rand)
	sum.Train, sum.Test = len(train), len(test)

	if _, err := p.Store.InsertFeatures(ctx, p.TrainTable, train); err != nil {
		return sum, fmt.Errorf("insert train rows: %w", err)
	}
	if _, err := p.Store.InsertFeatures(ctx, p.TestTable, test); err != nil {
		return sum, fmt.Errorf("insert test rows: %w", err)
	}

	p.Log.WithFields(logrus.Fields{
		"labelled": sum.Labelled,
		"balanced": sum.Balanced,
		"train":    sum.Train,
		"test":     sum.Test,
	}).Info("feature store updated")
	return sum, nil
}

// label builds one row per distinct link, visiting terms in sorted order.
func (p *Pipeline) label(ctx context.Context, articles map[string][]bots.Article) ([]Row, error) {
	terms := make([]string, 0, len(articles))
	for term := range articles {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	seen := make(map[string]struct{})
	var rows []Row
	for _, term := range terms {
		for _, a := range articles[term] {
			if _, ok := seen[a.Link]; ok {
				continue
			}
			seen[a.Link] = struct{}{}

			text := strings.TrimSpace(a.Body)
			if text == "" {
				text = a.Headline
			}
			label, err := p.Labeler.Label(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", a.Link, err)
			}
			rows = append(rows, Row{Text: text, Label: label})
		}
	}
	return rows, nil
}

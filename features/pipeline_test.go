package features

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	tables map[string][]Row
	err    error
}

func (m *memoryStore) InsertFeatures(_ context.Context, table string, rows []Row) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.tables == nil {
		m.tables = make(map[string][]Row)
	}
	m.tables[table] = append(m.tables[table], rows...)
	return len(rows), nil
}

// keywordLabeler labels by the first word of the text.
var keywordLabeler = sentiment.LabelerFunc(func(_ context.Context, text string) (sentiment.Label, error) {
	return sentiment.ParseLabel(strings.Fields(text)[0])
})

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func article(text, link string) bots.Article {
	return bots.Article{Headline: "h " + link, PostedAt: time.Now(), Body: text, Link: link}
}

func TestPipelineRun(t *testing.T) {
	articles := map[string][]bots.Article{
		"AAPL": {
			article("positive earnings", "a1"),
			article("positive guidance", "a2"),
			article("negative lawsuit", "a3"),
			article("neutral", "a4"),
			article("negative recall", "a5"),
		},
		"MSFT": {
			article("positive again", "a1"),
			article("neutral filing", "m1"),
			article("positive cloud", "m2"),
		},
	}

	store := &memoryStore{}
	p := NewPipeline(keywordLabeler, store, rand.New(rand.NewPCG(7, 7)), quietLogger())

	sum, err := p.Run(context.Background(), articles)
	require.NoError(t, err)

	assert.Equal(t, Summary{Labelled: 7, Balanced: 6, Train: 3, Test: 3}, sum)
	assert.Len(t, store.tables[DefaultTrainTable], 3)
	assert.Len(t, store.tables[DefaultTestTable], 3)
	assert.Equal(t, map[sentiment.Label]int{
		sentiment.Negative: 1,
		sentiment.Neutral:  1,
		sentiment.Positive: 1,
	}, countLabels(store.tables[DefaultTestTable]))
}

func TestPipelineRun_UsesHeadlineWithoutBody(t *testing.T) {
	var texts []string
	labeler := sentiment.LabelerFunc(func(_ context.Context, text string) (sentiment.Label, error) {
		texts = append(texts, text)
		return sentiment.Neutral, nil
	})

	p := NewPipeline(labeler, &memoryStore{}, rand.New(rand.NewPCG(1, 1)), quietLogger())
	_, err := p.Run(context.Background(), map[string][]bots.Article{
		"AAPL": {{Headline: "Only a headline", Link: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Only a headline"}, texts)
}

func TestPipelineRun_Errors(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 1))

	_, err := NewPipeline(keywordLabeler, &memoryStore{}, rng, quietLogger()).Run(ctx, nil)
	assert.ErrorIs(t, err, ErrNoRows)

	failing := sentiment.LabelerFunc(func(context.Context, string) (sentiment.Label, error) {
		return "", errors.New("model offline")
	})
	_, err = NewPipeline(failing, &memoryStore{}, rng, quietLogger()).Run(ctx, map[string][]bots.Article{
		"AAPL": {article("positive", "a")},
	})
	assert.ErrorContains(t, err, "model offline")

	storeErr := errors.New("store down")
	_, err = NewPipeline(keywordLabeler, &memoryStore{err: storeErr}, rng, quietLogger()).Run(ctx, map[string][]bots.Article{
		"AAPL": {article("positive", "a")},
	})
	assert.ErrorIs(t, err, storeErr)
}

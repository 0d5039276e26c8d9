package features

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(label sentiment.Label, n int) []Row {
	out := make([]Row, n)
	for i := range out {
		out[i] = Row{Text: fmt.Sprintf("%s %d", label, i), Label: label}
	}
	return out
}

func countLabels(rs []Row) map[sentiment.Label]int {
	counts := make(map[sentiment.Label]int)
	for _, r := range rs {
		counts[r.Label]++
	}
	return counts
}

func TestBalance(t *testing.T) {
	var in []Row
	in = append(in, rows(sentiment.Positive, 7)...)
	in = append(in, rows(sentiment.Negative, 3)...)
	in = append(in, rows(sentiment.Neutral, 12)...)

	out := Balance(in, rand.New(rand.NewPCG(1, 2)))

	assert.Equal(t, map[sentiment.Label]int{
		sentiment.Negative: 3,
		sentiment.Neutral:  3,
		sentiment.Positive: 3,
	}, countLabels(out))
	assert.Len(t, in, 22, "input is not modified")
}

func TestBalance_Empty(t *testing.T) {
	assert.Empty(t, Balance(nil, rand.New(rand.NewPCG(1, 2))))
}

func TestSplit(t *testing.T) {
	var in []Row
	in = append(in, rows(sentiment.Positive, 10)...)
	in = append(in, rows(sentiment.Negative, 10)...)
	in = append(in, rows(sentiment.Neutral, 2)...)

	train, test := Split(in, 0.2, rand.New(rand.NewPCG(3, 4)))

	assert.Equal(t, map[sentiment.Label]int{
		sentiment.Negative: 2,
		sentiment.Neutral:  1,
		sentiment.Positive: 2,
	}, countLabels(test))
	assert.Equal(t, map[sentiment.Label]int{
		sentiment.Negative: 8,
		sentiment.Neutral:  1,
		sentiment.Positive: 8,
	}, countLabels(train))

	seen := make(map[string]bool)
	for _, r := range append(train, test...) {
		require.False(t, seen[r.Text], "row %q in both partitions", r.Text)
		seen[r.Text] = true
	}
	assert.Len(t, seen, len(in))
}

func TestSplit_SingleRowStaysInTrain(t *testing.T) {
	train, test := Split(rows(sentiment.Negative, 1), 0.5, rand.New(rand.NewPCG(1, 1)))
	assert.Len(t, train, 1)
	assert.Empty(t, test)
}

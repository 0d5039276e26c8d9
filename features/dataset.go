// Package features turns crawled articles into balanced, labelled train and
// test rows for the feature store.
package features

import (
	"math"
	"math/rand/v2"

	"github.com/MShoaei/HeadlineMiner/sentiment"
)

// Row is one labelled text.
type Row struct {
	Text  string          `json:"text" bson:"text"`
	Label sentiment.Label `json:"label" bson:"label"`
}

// groupByLabel buckets rows per label, returning the labels in
// sentiment.Labels order followed by any others in first-seen order.
func groupByLabel(rows []Row) ([]sentiment.Label, map[sentiment.Label][]Row) {
	groups := make(map[sentiment.Label][]Row)
	var extra []sentiment.Label
	for _, r := range rows {
		if _, ok := groups[r.Label]; !ok && !isKnown(r.Label) {
			extra = append(extra, r.Label)
		}
		groups[r.Label] = append(groups[r.Label], r)
	}

	var order []sentiment.Label
	for _, l := range sentiment.Labels {
		if _, ok := groups[l]; ok {
			order = append(order, l)
		}
	}
	return append(order, extra...), groups
}

func isKnown(l sentiment.Label) bool {
	for _, k := range sentiment.Labels {
		if k == l {
			return true
		}
	}
	return false
}

func shuffled(rows []Row, rng *rand.Rand) []Row {
	out := append([]Row(nil), rows...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Balance down-samples every label to the size of the rarest one.
func Balance(rows []Row, rng *rand.Rand) []Row {
	order, groups := groupByLabel(shuffled(rows, rng))
	if len(order) == 0 {
		return nil
	}

	smallest := math.MaxInt
	for _, l := range order {
		smallest = min(smallest, len(groups[l]))
	}

	out := make([]Row, 0, smallest*len(order))
	for _, l := range order {
		out = append(out, groups[l][:smallest]...)
	}
	return out
}

// Split partitions rows per label so both sides keep the label mix. Each label
// with at least two rows puts at least one row on each side.
func Split(rows []Row, testFraction float64, rng *rand.Rand) (train, test []Row) {
	order, groups := groupByLabel(shuffled(rows, rng))
	for _, l := range order {
		g := groups[l]
		n := len(g)
		k := int(math.Round(float64(n) * testFraction))
		if n >= 2 {
			k = max(1, min(k, n-1))
		} else {
			k = 0
		}
		test = append(test, g[:k]...)
		train = append(train, g[k:]...)
	}
	return train, test
}

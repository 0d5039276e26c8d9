// Package sentiment labels news text as negative, neutral or positive.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Label string

const (
	Negative Label = "negative"
	Neutral  Label = "neutral"
	Positive Label = "positive"
)

// ErrUnknownLabel is returned for a model label outside the three classes.
var ErrUnknownLabel = errors.New("unknown sentiment label")

// Labels lists the classes in a stable order.
var Labels = []Label{Negative, Neutral, Positive}

// ParseLabel accepts the class names in any case as well as the generic
// LABEL_0..LABEL_2 names emitted by unconfigured classification heads.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "negative", "label_0":
		return Negative, nil
	case "neutral", "label_1":
		return Neutral, nil
	case "positive", "label_2":
		return Positive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

type Labeler interface {
	Label(ctx context.Context, text string) (Label, error)
}

// LabelerFunc adapts a function to a Labeler.
type LabelerFunc func(ctx context.Context, text string) (Label, error)

func (f LabelerFunc) Label(ctx context.Context, text string) (Label, error) {
	return f(ctx, text)
}

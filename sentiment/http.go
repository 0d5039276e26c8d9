package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultModel is the financial news classifier the labels are tuned for.
const DefaultModel = "mrm8488/distilroberta-finetuned-financial-news-sentiment-analysis"

// DefaultEndpoint serves DefaultModel through the hosted inference API.
const DefaultEndpoint = "https://api-inference.huggingface.co/models/" + DefaultModel

type score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HTTPLabeler calls a text-classification inference endpoint.
type HTTPLabeler struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPLabeler(endpoint, token string, timeout time.Duration) *HTTPLabeler {
	return &HTTPLabeler{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Label returns the highest scoring class for text.
func (l *HTTPLabeler) Label(ctx context.Context, text string) (Label, error) {
	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("label request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read label response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("label request: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	scores, err := decodeScores(body)
	if err != nil {
		return "", err
	}
	return best(scores)
}

// decodeScores accepts both the nested [[...]] and the flat [...] shapes.
func decodeScores(body []byte) ([]score, error) {
	var nested [][]score
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("empty label response")
		}
		return nested[0], nil
	}

	var flat []score
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode label response: %w", err)
	}
	return flat, nil
}

func best(scores []score) (Label, error) {
	if len(scores) == 0 {
		return "", fmt.Errorf("empty label response")
	}
	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}
	return ParseLabel(top.Label)
}

// Package perspective calls the external toxicity-scoring API. The service is
// consumed as a black box: five attribute scores in [0,1], compared against a
// fixed threshold. Any transport or API failure yields "no opinion"; content
// screening never blocks on an infrastructure hiccup.
package perspective

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

const (
	defaultEndpoint = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"
	requestTimeout  = 5 * time.Second

	// Threshold at or above which a single attribute fails the content.
	Threshold = 0.7
)

var attributes = []string{"TOXICITY", "SEVERE_TOXICITY", "IDENTITY_ATTACK", "INSULT", "PROFANITY"}

// Verdict is the mapped pass/fail outcome of an analyze call.
type Verdict struct {
	Flagged   bool
	Attribute string
	Score     float64
}

// Reason renders the failure as "ATTRIBUTE (NN%)".
func (v Verdict) Reason() string {
	return fmt.Sprintf("%s (%d%%)", v.Attribute, int(math.Round(v.Score*100)))
}

// Client talks to the comment-analyze endpoint.
type Client struct {
	apiKey   string
	endpoint string
	httpc    *http.Client
}

// New creates a classifier client. endpoint overrides the production API URL
// when non-empty (used by tests).
func New(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: requestTimeout},
	}
}

type analyzeRequest struct {
	Comment             struct{ Text string `json:"text"` } `json:"comment"`
	RequestedAttributes map[string]struct{}                 `json:"requestedAttributes"`
	DoNotStore          bool                                `json:"doNotStore"`
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Analyze scores text and maps the attribute scores to a verdict. The error
// return is non-nil for any transport, timeout, or non-2xx failure; callers
// treat that as "no verdict".
func (c *Client) Analyze(ctx context.Context, text string) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reqBody := analyzeRequest{DoNotStore: true, RequestedAttributes: map[string]struct{}{}}
	reqBody.Comment.Text = text
	for _, attr := range attributes {
		reqBody.RequestedAttributes[attr] = struct{}{}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("perspective: status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	verdict := &Verdict{}
	for _, attr := range attributes {
		score, ok := parsed.AttributeScores[attr]
		if !ok {
			continue
		}
		v := score.SummaryScore.Value
		if v >= Threshold && (!verdict.Flagged || v > verdict.Score) {
			verdict.Flagged = true
			verdict.Attribute = attr
			verdict.Score = v
		}
	}
	return verdict, nil
}

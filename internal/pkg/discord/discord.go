// Package discord delivers fire-and-forget webhook notifications. Delivery
// failures are retried with capped exponential backoff for retryable (5xx,
// network) failures only, then logged and swallowed. A notification never
// fails or rolls back the mutation that produced it.
package discord

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Embed is a single Discord message embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type message struct {
	Embeds []Embed `json:"embeds"`
}

// Notifier posts embeds to a configured Discord webhook. A Notifier with an
// empty URL is a no-op, so callers never need to nil-check.
type Notifier struct {
	webhookURL string
	client     *http.Client
	log        *zap.Logger
}

// New builds a Notifier. The underlying client retries up to 3 times with
// 1s..10s backoff; 4xx responses from the webhook target are permanent and
// not retried.
func New(webhookURL string, log *zap.Logger) *Notifier {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = nil
	client := rc.StandardClient()
	client.Timeout = 15 * time.Second

	return &Notifier{webhookURL: webhookURL, client: client, log: log}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool { return n != nil && n.webhookURL != "" }

// Send delivers one embed. Call it from a goroutine; it blocks through
// retries and only ever logs its outcome.
func (n *Notifier) Send(embed Embed) {
	if !n.Enabled() {
		return
	}
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(message{Embeds: []Embed{embed}})
	if err != nil {
		return
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(raw))
	if err != nil {
		if n.log != nil {
			n.log.Warn("discord notification failed", zap.Error(err))
		}
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && n.log != nil {
		n.log.Warn("discord notification rejected", zap.Int("status", resp.StatusCode))
	}
}

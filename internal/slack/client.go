package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/httpclient"
)

// Notifier posts a message to a chat channel and returns the message id.
type Notifier interface {
	Notify(ctx context.Context, n dto.Notification) (string, error)
}

type Client struct {
	http           *httpclient.Client
	defaultChannel string
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: httpclient.New(
			strings.TrimRight(cfg.Slack.BaseURL, "/"),
			cfg.Slack.Bearer,
			httpclient.WithTimeout(cfg.Slack.Timeout),
			httpclient.WithRetries(cfg.Slack.Retries),
		),
		defaultChannel: cfg.Slack.DefaultChannel,
	}
}

func (c *Client) Notify(ctx context.Context, n dto.Notification) (string, error) {
	channel := c.defaultChannel
	if n.Destination != nil && *n.Destination != "" {
		channel = *n.Destination
	}
	if channel == "" {
		return "", errors.New("slack: no destination channel configured")
	}

	var resp postMessageResponse
	if err := c.http.PostJSON(ctx, "/api/chat.postMessage", postMessageRequest{Channel: channel, Text: n.Text}, &resp); err != nil {
		return "", fmt.Errorf("slack post message: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("slack post message: %s", resp.Error)
	}
	return resp.TS, nil
}

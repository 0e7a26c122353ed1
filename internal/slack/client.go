package slack

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// defaultRequestTimeout is the default timeout for Slack webhook requests
const defaultRequestTimeout = 10 * time.Second

// Client posts batch notifications to a Slack incoming webhook
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Slack client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a new Slack webhook client
func New(webhookURL string, opts ...Option) (*Client, error) {
	if webhookURL == "" {
		return nil, ErrMissingWebhookURL
	}

	httpClient := cleanhttp.DefaultClient()
	httpClient.Timeout = defaultRequestTimeout

	client := &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

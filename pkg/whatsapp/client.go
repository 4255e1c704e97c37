// Package whatsapp is a thin client for the WhatsApp Cloud (Graph) API:
// outbound texts and media retrieval for image submissions.
package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Sender delivers one text to a player
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// MediaFetcher resolves and downloads an attached image by its media id
type MediaFetcher interface {
	FetchMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// Config holds Graph API access settings
type Config struct {
	APIBase string // e.g. https://graph.facebook.com/v21.0
	Token   string
	PhoneID string
}

// Client implements Sender and MediaFetcher against the Graph API
type Client struct {
	http    *http.Client
	apiBase string
	token   string
	phoneID string
}

// NewClient creates a new Client instance
func NewClient(cfg Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		apiBase: cfg.APIBase,
		token:   cfg.Token,
		phoneID: cfg.PhoneID,
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// SendText posts one text message to the player's number
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	payload.Text.PreviewURL = true
	payload.Text.Body = body

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode send payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send text to %s: status %d: %s", to, resp.StatusCode, snippet)
	}
	return nil
}

// FetchMedia resolves the media id to its download URL and fetches the
// image bytes
func (c *Client) FetchMedia(ctx context.Context, mediaID string) ([]byte, error) {
	lookupURL := fmt.Sprintf("%s/%s", c.apiBase, mediaID)
	var lookup struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, lookupURL, &lookup); err != nil {
		return nil, fmt.Errorf("media lookup %s: %w", mediaID, err)
	}
	if lookup.URL == "" {
		return nil, fmt.Errorf("media lookup %s: no url in response", mediaID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download media %s: %w", mediaID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download media %s: status %d", mediaID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

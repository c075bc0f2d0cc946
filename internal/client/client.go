package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/models"
)

// ErrQuotaExceeded is returned when the server reports the model's quota is spent
var ErrQuotaExceeded = errors.New("vision model quota exceeded")

// CooldownError is returned when the server throttle rejects a scan
type CooldownError struct {
	WaitSec int
	Message string
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (retry in %ds)", e.Message, e.WaitSec)
}

// APIError is any other non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// SyncResult is the server's report of a completed sync
type SyncResult struct {
	Action    string `json:"action"`
	ImageLink string `json:"imageLink"`
	Row       int    `json:"row,omitempty"`
}

// Client talks to a cardscan server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// two vision passes can take a while
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

// Scan uploads an image for extraction. An empty model uses the server default.
func (c *Client) Scan(ctx context.Context, image []byte, mimeType, model string) (models.CardRecord, error) {
	req := map[string]string{
		"imageBase64": base64.StdEncoding.EncodeToString(image),
		"mimeType":    mimeType,
	}
	if model != "" {
		req["model"] = model
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    models.CardRecord `json:"data"`
	}
	if err := c.post(ctx, "/api/scan", req, &resp); err != nil {
		return models.CardRecord{}, err
	}
	return resp.Data, nil
}

// Sync archives the image and upserts the card
func (c *Client) Sync(ctx context.Context, card models.CardRecord, image []byte, mimeType string) (SyncResult, error) {
	req := struct {
		Card        models.CardRecord `json:"card"`
		ImageBase64 string            `json:"imageBase64"`
		MIMEType    string            `json:"mimeType"`
	}{
		Card:        card,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		MIMEType:    mimeType,
	}

	var result SyncResult
	if err := c.post(ctx, "/api/sync", req, &result); err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error   string `json:"error"`
		WaitSec int    `json:"waitSec"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}

	if status == http.StatusTooManyRequests {
		if body.Code == "QUOTA_EXCEEDED" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, body.Error)
		}
		return &CooldownError{WaitSec: body.WaitSec, Message: body.Error}
	}
	return &APIError{Status: status, Message: body.Error}
}

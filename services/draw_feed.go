package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"matka/models"
	"matka/settlement"
)

// DefaultDrawFeedTimeout bounds one feed call. The call runs while the
// market's settlement locks are held, so it stays well under the scheduler
// minute.
const DefaultDrawFeedTimeout = 5 * time.Second

// DrawFeed asks an external draw provider for the panna of a market slot.
type DrawFeed struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDrawFeed(baseURL, apiKey string, timeout time.Duration) *DrawFeed {
	if timeout <= 0 || timeout > DefaultDrawFeedTimeout {
		timeout = DefaultDrawFeedTimeout
	}
	return &DrawFeed{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *DrawFeed) Draw(ctx context.Context, market string, slot models.Slot) (settlement.Panna, error) {
	payload := map[string]any{
		"market": market,
		"slot":   slot,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/draw", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-Api-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("draw feed: %w", err)
	}
	defer resp.Body.Close()

	rawResp, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("draw feed: status %d", resp.StatusCode)
	}

	var result struct {
		Panna string `json:"panna"`
		Error struct {
			ID  int    `json:"id"`
			Msg string `json:"msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rawResp, &result); err != nil {
		return "", fmt.Errorf("draw feed decode: %w", err)
	}
	if result.Error.ID != 0 {
		return "", fmt.Errorf("draw feed error: %s", result.Error.Msg)
	}
	return settlement.ParsePanna(result.Panna)
}

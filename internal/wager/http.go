package wager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig controls how the HTTP platform reaches the wagering backend.
type HTTPConfig struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// HTTPPlatform drives a remote wagering backend over JSON-over-HTTP.
type HTTPPlatform struct {
	baseURL    string
	authToken  string
	httpClient httpDoer
}

// NewHTTPPlatform constructs the HTTP platform.
func NewHTTPPlatform(cfg HTTPConfig) *HTTPPlatform {
	client := httpDoer(cfg.HTTPClient)
	if cfg.HTTPClient == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPPlatform{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		httpClient: client,
	}
}

func (p *HTTPPlatform) OpenMarket(ctx context.Context, m Market) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := p.post(ctx, "/markets/open", map[string]string{
		"session_id": m.SessionID,
		"match_id":   m.MatchID,
		"title":      m.Title,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (p *HTTPPlatform) SettleMarket(ctx context.Context, sessionID string, won bool) error {
	outcome := "lose"
	if won {
		outcome = "win"
	}
	return p.post(ctx, "/markets/settle", map[string]string{
		"session_id": sessionID,
		"outcome":    outcome,
	}, nil)
}

func (p *HTTPPlatform) RefundMarket(ctx context.Context, sessionID string) error {
	return p.post(ctx, "/markets/refund", map[string]string{
		"session_id": sessionID,
	}, nil)
}

func (p *HTTPPlatform) post(ctx context.Context, path string, payload map[string]string, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wager: encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoOpenMarket
	case resp.StatusCode == http.StatusForbidden:
		return ErrDisabled
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("wager: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if dest != nil {
		// Backends without market ids respond with an empty body; that is fine.
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("wager: decode %s: %w", path, err)
		}
	}
	return nil
}

var _ Platform = (*HTTPPlatform)(nil)

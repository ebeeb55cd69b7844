package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"dota-events-service/internal/clients"
	"dota-events-service/internal/domain"
)

// Config controls how the client reaches the Steam Web API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to the Steam Web API for live server discovery, realtime
// roster stats, finished-match details and profile rank cards.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
}

// NewClient constructs a Steam client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

// ServerForAccount returns the handle of the game server the account is
// currently playing on. clients.ErrNoServer means the account is not on a
// server yet; callers are expected to retry.
func (c *Client) ServerForAccount(ctx context.Context, accountID int64) (string, error) {
	var payload serverResponse
	err := c.getJSON(ctx, serverPath, map[string]string{
		"account_id": strconv.FormatInt(accountID, 10),
	}, &payload)
	if err != nil {
		return "", err
	}
	id := payload.Result.ServerSteamID
	if id == "" || id == "0" {
		return "", clients.ErrNoServer
	}
	return id, nil
}

// RealtimeStats fetches the live roster for the given server handle. The
// returned record may be incomplete early in a match; readiness is the
// caller's concern.
func (c *Client) RealtimeStats(ctx context.Context, serverID string) (*domain.MatchRecord, error) {
	var payload realtimeResponse
	err := c.getJSON(ctx, realtimePath, map[string]string{
		"server_steam_id": serverID,
	}, &payload)
	if err != nil {
		return nil, err
	}
	record := mapRealtime(payload)
	if record.ServerHandle == "" {
		record.ServerHandle = serverID
	}
	return record, nil
}

// MatchResult fetches the recorded outcome of a finished match.
// clients.ErrNoResult means the match has not been scored yet.
func (c *Client) MatchResult(ctx context.Context, matchID string) (*domain.MatchResult, error) {
	var payload detailsResponse
	err := c.getJSON(ctx, detailsPath, map[string]string{
		"match_id": matchID,
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Result.Error != "" || payload.Result.RadiantWin == nil {
		return nil, clients.ErrNoResult
	}
	return mapResult(matchID, payload), nil
}

// RankCard fetches the profile card for an account.
func (c *Client) RankCard(ctx context.Context, accountID int64) (*domain.RankCard, error) {
	var payload cardResponse
	err := c.getJSON(ctx, cardPath, map[string]string{
		"account_id": strconv.FormatInt(accountID, 10),
	}, &payload)
	if err != nil {
		return nil, err
	}
	card := mapCard(payload)
	if card.AccountID == 0 {
		card.AccountID = accountID
	}
	return card, nil
}

// nonRetryable reports status codes that retrying cannot fix. 404 and 429
// stay retryable: the API briefly 404s while a match is materializing, and
// rate limits clear on their own.
func nonRetryable(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusNotFound && status != http.StatusTooManyRequests
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	for key, val := range params {
		q.Set(key, val)
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		if nonRetryable(resp.StatusCode) {
			return fmt.Errorf("%w: %w", clients.ErrRejected, statusErr)
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("steam: decode %s: %w", path, err)
	}
	return nil
}

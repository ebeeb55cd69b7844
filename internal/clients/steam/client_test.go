package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dota-events-service/internal/clients"
	"dota-events-service/internal/domain"
)

func TestServerForAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != serverPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("account_id"); got != "12345" {
			t.Errorf("unexpected account_id %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("unexpected key %q", got)
		}
		w.Write([]byte(`{"result":{"server_steam_id":"90071996842861234"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	id, err := client.ServerForAccount(context.Background(), 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "90071996842861234" {
		t.Fatalf("unexpected server id %q", id)
	}
}

func TestServerForAccountNotPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"server_steam_id":"0"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	if _, err := client.ServerForAccount(context.Background(), 1); !errors.Is(err, clients.ErrNoServer) {
		t.Fatalf("expected ErrNoServer, got %v", err)
	}
}

func TestRealtimeStatsMapsRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != realtimePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"match": {"match_id": "7000000001", "server_steam_id": "900", "lobby_type": 7},
			"teams": [
				{"team_number": 3, "players": [{"accountid": 6, "heroid": 60}]},
				{"team_number": 2, "players": [{"accountid": 1, "heroid": 10}]}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	record, err := client.RealtimeStats(context.Background(), "900")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.MatchID != "7000000001" || record.LobbyType != 7 {
		t.Fatalf("unexpected record %+v", record)
	}
	// Teams come back in team_number order regardless of payload order.
	if record.Teams[0].Players[0].AccountID != 1 || record.Teams[1].Players[0].AccountID != 6 {
		t.Fatalf("teams not ordered: %+v", record.Teams)
	}
}

func TestMatchResult(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    domain.Team
		wantErr error
	}{
		{
			name: "radiant win",
			body: `{"result":{"match_id":7000000001,"radiant_win":true}}`,
			want: domain.TeamRadiant,
		},
		{
			name: "dire win",
			body: `{"result":{"match_id":7000000001,"radiant_win":false}}`,
			want: domain.TeamDire,
		},
		{
			name:    "not scored yet",
			body:    `{"result":{"error":"Match ID not found"}}`,
			wantErr: clients.ErrNoResult,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(Config{BaseURL: srv.URL})
			result, err := client.MatchResult(context.Background(), "7000000001")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Winner != tc.want {
				t.Fatalf("expected winner %s, got %s", tc.want, result.Winner)
			}
		})
	}
}

func TestStatusErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.RealtimeStats(context.Background(), "900")
	sErr, ok := AsStatusError(err)
	if !ok {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if sErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", sErr.StatusCode)
	}
}

func TestRankCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"account_id":42,"rank_tier":75,"leaderboard_rank":120}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	card, err := client.RankCard(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.RankTier != 75 || card.LeaderboardRank != 120 {
		t.Fatalf("unexpected card %+v", card)
	}
}

func TestBadRequestMarkedRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "bad"})
	_, err := c.RealtimeStats(context.Background(), "srv")
	if !errors.Is(err, clients.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if sErr, ok := AsStatusError(err); !ok || sErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected wrapped status error, got %v", err)
	}
}

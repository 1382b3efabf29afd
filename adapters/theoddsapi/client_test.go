package theoddsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

const sampleOdds = `[
  {
    "id": "evt1",
    "sport_key": "soccer_epl",
    "sport_title": "EPL",
    "commence_time": "2026-10-16T19:00:00Z",
    "home_team": "Arsenal",
    "away_team": "Chelsea",
    "bookmakers": [
      {
        "key": "pinnacle",
        "title": "Pinnacle",
        "last_update": "2026-10-15T10:00:00Z",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Arsenal", "price": 1.85},
            {"name": "Chelsea", "price": 4.2},
            {"name": "Draw", "price": 3.6}
          ]},
          {"key": "totals", "outcomes": [
            {"name": "Over", "price": 1.9, "point": 2.5},
            {"name": "Under", "price": 1.95, "point": 2.5}
          ]}
        ]
      }
    ]
  },
  {
    "id": "evt2",
    "sport_key": "soccer_epl",
    "commence_time": "not-a-date",
    "home_team": "Leeds",
    "away_team": "Everton",
    "bookmakers": []
  }
]`

func TestFetchOdds_ParsesDecimalOdds(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/sports/soccer_epl/odds" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"apiKey":     q.Get("apiKey"),
			"regions":    q.Get("regions"),
			"markets":    q.Get("markets"),
			"oddsFormat": q.Get("oddsFormat"),
			"dateFormat": q.Get("dateFormat"),
		}
		w.Header().Set("x-requests-remaining", "480")
		w.Header().Set("x-requests-used", "20")
		w.Write([]byte(sampleOdds))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: srv.URL, Timeout: time.Second})

	result, err := client.FetchOdds(context.Background(), &models.FetchOddsOptions{
		Sport:   "soccer_epl",
		Regions: []string{"eu"},
		Markets: []string{"h2h", "totals"},
	})
	if err != nil {
		t.Fatalf("FetchOdds failed: %v", err)
	}

	expectedQuery := map[string]string{
		"apiKey":     "secret",
		"regions":    "eu",
		"markets":    "h2h,totals",
		"oddsFormat": "decimal",
		"dateFormat": "iso",
	}
	for k, v := range expectedQuery {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(result.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.Events))
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped event, got %d", result.Skipped)
	}

	evt := result.Events[0]
	if evt.HomeTeam != "Arsenal" || evt.AwayTeam != "Chelsea" {
		t.Errorf("unexpected teams %s vs %s", evt.HomeTeam, evt.AwayTeam)
	}
	if !evt.CommenceTime.Equal(time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected commence time %v", evt.CommenceTime)
	}
	if len(evt.Bookmakers) != 1 || len(evt.Bookmakers[0].Markets) != 2 {
		t.Fatalf("unexpected bookmaker/market layout: %+v", evt.Bookmakers)
	}

	totals := evt.Bookmakers[0].Markets[1]
	if totals.Outcomes[0].Point == nil || *totals.Outcomes[0].Point != 2.5 {
		t.Errorf("expected totals point 2.5, got %v", totals.Outcomes[0].Point)
	}
	if evt.Bookmakers[0].Markets[0].Outcomes[0].Price != 1.85 {
		t.Errorf("expected price 1.85, got %v", evt.Bookmakers[0].Markets[0].Outcomes[0].Price)
	}

	limits := client.GetRateLimits()
	if limits.RequestsRemaining != 480 || limits.RequestsUsed != 20 {
		t.Errorf("unexpected rate limits %+v", limits)
	}
}

const mixedPriceOdds = `[
  {
    "id": "evt3",
    "sport_key": "soccer_italy_serie_a",
    "commence_time": "2026-10-17T18:45:00Z",
    "home_team": "Inter",
    "away_team": "Milan",
    "bookmakers": [
      {
        "key": "unibet",
        "title": "Unibet",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Inter", "price": 1.9},
            {"name": "Milan", "price": "2.05"},
            {"name": "Draw", "price": "n/a"},
            {"name": "Void", "price": null}
          ]},
          {"key": "totals", "outcomes": [
            {"name": "Over", "price": 1.8, "point": "2.5"},
            {"name": "Under", "price": 2.0, "point": {}}
          ]}
        ]
      }
    ]
  }
]`

func TestFetchOdds_UnparseablePriceDropsOnlyThatOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mixedPriceOdds))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	result, err := client.FetchOdds(context.Background(), &models.FetchOddsOptions{Sport: "soccer_italy_serie_a"})
	if err != nil {
		t.Fatalf("one bad price must not fail the sport: %v", err)
	}
	if len(result.Events) != 1 || result.Skipped != 0 {
		t.Fatalf("expected the event to survive, got %d events, %d skipped", len(result.Events), result.Skipped)
	}

	h2h := result.Events[0].Bookmakers[0].Markets[0].Outcomes
	wantPrices := []float64{1.9, 2.05, 0, 0}
	if len(h2h) != len(wantPrices) {
		t.Fatalf("expected %d outcomes, got %d", len(wantPrices), len(h2h))
	}
	for i, want := range wantPrices {
		if h2h[i].Price != want {
			t.Errorf("%s: price = %v, want %v", h2h[i].Name, h2h[i].Price, want)
		}
	}
	if !h2h[0].Valid() || !h2h[1].Valid() || h2h[2].Valid() || h2h[3].Valid() {
		t.Errorf("only numeric prices should be valid: %+v", h2h)
	}

	totals := result.Events[0].Bookmakers[0].Markets[1].Outcomes
	if totals[0].Point == nil || *totals[0].Point != 2.5 {
		t.Errorf("expected string point 2.5 to decode, got %v", totals[0].Point)
	}
	if totals[1].Point != nil {
		t.Errorf("expected garbage point to be unset, got %v", *totals[1].Point)
	}
}

func TestFetchOdds_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		apiKey  string
		wantErr error
	}{
		{"missing key", http.StatusOK, "[]", "", contracts.ErrNotConfigured},
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`, "k", contracts.ErrTransport},
		{"server error", http.StatusInternalServerError, "boom", "k", contracts.ErrTransport},
		{"malformed body", http.StatusOK, "{not json", "k", contracts.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(Config{APIKey: tt.apiKey, BaseURL: srv.URL})
			_, err := client.FetchOdds(context.Background(), &models.FetchOddsOptions{Sport: "basketball_nba"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.apiKey == "" && calls != 0 {
				t.Errorf("expected no request without API key, got %d", calls)
			}
			if tt.apiKey != "" && calls != 1 {
				t.Errorf("expected exactly one attempt, got %d", calls)
			}
		})
	}
}

func TestFetchOdds_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.FetchOdds(context.Background(), &models.FetchOddsOptions{Sport: "soccer_epl"})
	if !errors.Is(err, contracts.ErrTransport) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
	if contracts.Kind(err) != "transport" {
		t.Errorf("expected kind transport, got %s", contracts.Kind(err))
	}
}

func TestSupportsMarket(t *testing.T) {
	client := NewClient(Config{APIKey: "test_key"})

	tests := []struct {
		market   string
		expected bool
	}{
		{"h2h", true},
		{"spreads", true},
		{"totals", true},
		{"btts", true},
		{"player_points", false},
		{"futures", false},
	}

	for _, tt := range tests {
		t.Run(tt.market, func(t *testing.T) {
			if got := client.SupportsMarket(tt.market); got != tt.expected {
				t.Errorf("SupportsMarket(%s) = %v, want %v", tt.market, got, tt.expected)
			}
		})
	}
}

func TestGetRateLimits_Default(t *testing.T) {
	client := NewClient(Config{APIKey: "test_key"})
	limits := client.GetRateLimits()

	if limits.RequestsRemaining != 500 {
		t.Errorf("expected 500 initial requests, got %d", limits.RequestsRemaining)
	}
}

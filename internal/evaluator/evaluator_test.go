package evaluator

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/XavierBriggs/Augur/internal/dedup"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/XavierBriggs/Augur/pkg/testutil"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestEvaluator() (*Evaluator, *dedup.MemoryStore) {
	store := dedup.NewMemoryStore()
	return New(store).WithClock(func() time.Time { return fixedNow }), store
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestEvaluate_GoldenFixtures(t *testing.T) {
	for _, fx := range testutil.GetGoldenFixtures() {
		t.Run(fx.Name, func(t *testing.T) {
			ev, _ := newTestEvaluator()
			evt := testutil.WithMarket(testutil.NewTestEvent("e1", "Home", "Away", fixedNow, 24), models.MarketH2H, fx.Outcomes...)

			var est testutil.FixedEstimator
			if fx.Historical != nil {
				est = testutil.FixedEstimator{Value: *fx.Historical, OK: true}
			}

			got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, est)
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			c := got[0]
			if c.OutcomeName != fx.ExpectedName {
				t.Errorf("selected %s, want %s", c.OutcomeName, fx.ExpectedName)
			}
			if !approx(c.Probability, fx.ExpectedProb) {
				t.Errorf("probability %.2f, want %.2f", c.Probability, fx.ExpectedProb)
			}
			if c.Accepted() != fx.Accepted {
				t.Errorf("accepted = %v, want %v (reasons %v)", c.Accepted(), fx.Accepted, c.Reasons)
			}
			if c.Accepted() == (len(c.Reasons) > 0) {
				t.Errorf("reasons must be non-empty exactly when rejected: %v", c.Reasons)
			}
		})
	}
}

func TestEvaluate_SelectsLowestPrice(t *testing.T) {
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "Arsenal", "Chelsea", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("Chelsea", 3.00),
		testutil.NewOutcome("Arsenal", 1.50),
	)

	got, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.OutcomeName != "Arsenal" || c.Price != 1.50 {
		t.Errorf("expected Arsenal @ 1.50, got %s @ %.2f", c.OutcomeName, c.Price)
	}
	if !approx(c.ImpliedProbability, 66.67) {
		t.Errorf("expected implied 66.67, got %.2f", c.ImpliedProbability)
	}
	if c.HistoricalProbability != nil {
		t.Error("expected no historical probability without estimator")
	}
	if c.Probability != c.ImpliedProbability || c.Edge != 0 {
		t.Errorf("expected unblended probability, got p=%.2f edge=%.2f", c.Probability, c.Edge)
	}
	if c.Identity() != "candidate:soccer_epl:Arsenal:Chelsea:h2h:Arsenal" {
		t.Errorf("unexpected identity %s", c.Identity())
	}
	if c.Bookmaker != "Pinnacle" || !c.EvaluatedAt.Equal(fixedNow) {
		t.Errorf("unexpected bookmaker/time %s %v", c.Bookmaker, c.EvaluatedAt)
	}
	if stats.Evaluated != 1 || stats.Rejected != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEvaluate_TieFirstOccurrenceWins(t *testing.T) {
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("B", 1.90),
		testutil.NewOutcome("A", 1.90),
	)

	got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(got) != 1 || got[0].OutcomeName != "B" {
		t.Fatalf("expected first outcome B on tie, got %+v", got)
	}
}

func TestEvaluate_InvalidPricesNeverEvaluated(t *testing.T) {
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 1.0),
		testutil.NewOutcome("B", 0),
		testutil.NewOutcome("Draw", -2.5),
	)

	got, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
	if stats.InvalidPrices != 3 || stats.Evaluated != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestEvaluate_SkipsSingleOutcomeMarkets(t *testing.T) {
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 2.00),
	)

	got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(got) != 0 {
		t.Fatalf("expected market with one outcome to be skipped, got %d", len(got))
	}
}

func TestEvaluate_PriceBoundary(t *testing.T) {
	high := testutil.FixedEstimator{Value: 100, OK: true}

	tests := []struct {
		name     string
		price    float64
		accepted bool
	}{
		{"exactly min price", 1.70, true},
		{"one cent below", 1.69, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, _ := newTestEvaluator()
			evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
				testutil.NewOutcome("A", tt.price),
				testutil.NewOutcome("B", 2.50),
			)

			got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, high)
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if got[0].Accepted() != tt.accepted {
				t.Errorf("accepted = %v, want %v (p=%.2f reasons=%v)", got[0].Accepted(), tt.accepted, got[0].Probability, got[0].Reasons)
			}
			if !tt.accepted && len(got[0].Reasons) != 1 {
				t.Errorf("expected a single price reason, got %v", got[0].Reasons)
			}
		})
	}
}

func TestEvaluate_ProbabilityBoundary(t *testing.T) {
	// implied 50 (price 2.00), w=0.5: historical 90 -> exactly 70
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 2.00),
		testutil.NewOutcome("B", 2.00),
	)

	got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt},
		testutil.FixedEstimator{Value: 90, OK: true})
	if len(got) != 1 || !got[0].Accepted() {
		t.Fatalf("expected acceptance at exactly min probability, got %+v", got)
	}
	if !approx(got[0].Edge, 20) {
		t.Errorf("expected edge 20, got %.2f", got[0].Edge)
	}
}

func TestEvaluate_BothThresholdsFail(t *testing.T) {
	ev, _ := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 1.60),
		testutil.NewOutcome("B", 2.40),
	)

	got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt},
		testutil.FixedEstimator{Value: 10, OK: true})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Accepted() || len(got[0].Reasons) != 2 {
		t.Errorf("expected two rejection reasons, got %v", got[0].Reasons)
	}
}

func TestEvaluate_HorizonWindow(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		want  int
	}{
		{"within horizon", 24, 1},
		{"72 hours out", 72, 0},
		{"already started", -1, 0},
		{"starting now", 0, 0},
		{"exactly at horizon", 48, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, _ := newTestEvaluator()
			evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, tt.hours), models.MarketH2H,
				testutil.NewOutcome("A", 1.80),
				testutil.NewOutcome("B", 2.00),
			)

			got, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt},
				testutil.FixedEstimator{Value: 100, OK: true})
			if len(got) != tt.want {
				t.Errorf("expected %d candidates, got %d", tt.want, len(got))
			}
			if stats.InWindow != tt.want {
				t.Errorf("expected in-window %d, got %d", tt.want, stats.InWindow)
			}
		})
	}
}

func TestEvaluate_Blend(t *testing.T) {
	if got := Blend(80, 60, 0.5); !approx(got, 70) {
		t.Errorf("Blend(80, 60, 0.5) = %.2f, want 70", got)
	}
	if got := Blend(80, 60, 0.4); !approx(got, 68) {
		t.Errorf("Blend(80, 60, 0.4) = %.2f, want 68", got)
	}
	if got := Blend(100, 150, 0); got != 100 {
		t.Errorf("expected clamp to 100, got %.2f", got)
	}
}

func TestEvaluate_Deduplication(t *testing.T) {
	ev, store := newTestEvaluator()
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 1.80),
		testutil.NewOutcome("B", 2.00),
	)
	// A second book offering the same market yields the same identity
	evt.Bookmakers = append(evt.Bookmakers, models.Bookmaker{
		Key: "unibet", Title: "Unibet",
		Markets: []models.Market{{Key: models.MarketH2H, Outcomes: []models.Outcome{
			testutil.NewOutcome("A", 1.85),
			testutil.NewOutcome("B", 1.95),
		}}},
	})

	first, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(first) != 1 {
		t.Fatalf("expected 1 candidate on first pass, got %d", len(first))
	}
	if stats.Duplicates != 1 {
		t.Errorf("expected the second book to count as duplicate, got %+v", stats)
	}

	second, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(second) != 0 {
		t.Fatalf("expected no candidates on second pass, got %d", len(second))
	}
	if stats.Duplicates != 2 {
		t.Errorf("expected 2 duplicates, got %d", stats.Duplicates)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 stored identity, got %d", store.Len())
	}
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) Add(context.Context, string) error {
	return nil
}

func TestEvaluate_StoreErrorSkipsCandidate(t *testing.T) {
	ev := New(failingStore{}).WithClock(func() time.Time { return fixedNow })
	evt := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 24), models.MarketH2H,
		testutil.NewOutcome("A", 1.80),
		testutil.NewOutcome("B", 2.00),
	)

	got, stats := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{evt}, nil)
	if len(got) != 0 {
		t.Fatalf("expected candidate to be skipped, got %d", len(got))
	}
	if stats.StoreErrors != 1 {
		t.Errorf("expected 1 store error, got %d", stats.StoreErrors)
	}
}

func TestEvaluate_PreservesInputOrder(t *testing.T) {
	ev, _ := newTestEvaluator()
	e1 := testutil.WithMarket(testutil.NewTestEvent("e1", "A", "B", fixedNow, 30), models.MarketH2H,
		testutil.NewOutcome("A", 1.80), testutil.NewOutcome("B", 2.00))
	e2 := testutil.WithMarket(testutil.NewTestEvent("e2", "C", "D", fixedNow, 10), models.MarketH2H,
		testutil.NewOutcome("C", 1.80), testutil.NewOutcome("D", 2.00))
	e2 = testutil.WithMarket(e2, models.MarketTotals,
		testutil.NewLineOutcome("Over", 1.90, 2.5), testutil.NewLineOutcome("Under", 1.85, 2.5))

	got, _ := ev.Evaluate(context.Background(), "soccer_epl", testutil.DefaultThresholds(), []models.Event{e1, e2}, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	order := []string{got[0].EventID + "/" + got[0].MarketKey, got[1].EventID + "/" + got[1].MarketKey, got[2].EventID + "/" + got[2].MarketKey}
	want := []string{"e1/h2h", "e2/h2h", "e2/totals"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, order[i], want[i])
		}
	}
	if got[2].OutcomeName != "Under" || got[2].Point == nil || *got[2].Point != 2.5 {
		t.Errorf("expected Under 2.5, got %s %v", got[2].OutcomeName, got[2].Point)
	}
}

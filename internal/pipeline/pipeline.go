// Package pipeline runs one fetch-evaluate-notify cycle over every
// registered sport.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/internal/evaluator"
	"github.com/XavierBriggs/Augur/internal/history"
	"github.com/XavierBriggs/Augur/internal/notifier"
	"github.com/XavierBriggs/Augur/internal/registry"
	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// HistorySource loads historical tables by category
type HistorySource interface {
	Load(category string) (*history.Table, error)
}

// Recorder persists the candidates emitted in a cycle
type Recorder interface {
	Record(ctx context.Context, candidates []models.Candidate) error
}

// ReportSink receives the report of every finished cycle
type ReportSink interface {
	RecordCycle(report models.CycleReport)
}

// Options toggles optional notifications
type Options struct {
	NotifyRejected   bool
	NotifyEmptyCycle bool
	// MaxAlerts caps the messages sent per cycle, highest edge first.
	// Zero means no cap.
	MaxAlerts int
}

// Pipeline wires the cycle together. History, Recorder and Reports are
// optional.
type Pipeline struct {
	Registry  *registry.SportRegistry
	Adapter   contracts.VendorAdapter
	History   HistorySource
	Evaluator *evaluator.Evaluator
	Notifier  notifier.Notifier
	Recorder  Recorder
	Reports   ReportSink
	Options   Options

	now    func() time.Time
	logger zerolog.Logger
}

// New creates a pipeline. Optional collaborators may be set on the returned
// value before the first cycle.
func New(reg *registry.SportRegistry, adapter contracts.VendorAdapter, eval *evaluator.Evaluator, n notifier.Notifier, opts Options) *Pipeline {
	return &Pipeline{
		Registry:  reg,
		Adapter:   adapter,
		Evaluator: eval,
		Notifier:  n,
		Options:   opts,
		now:       time.Now,
		logger:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Job adapts RunCycle to the scheduler
func (p *Pipeline) Job(ctx context.Context) error {
	_, err := p.RunCycle(ctx)
	return err
}

// RunCycle walks every sport in key order. Per-sport failures are logged
// and recorded in the report; only an empty registry is an error.
func (p *Pipeline) RunCycle(ctx context.Context) (models.CycleReport, error) {
	report := models.CycleReport{
		CycleID:   uuid.NewString(),
		StartedAt: p.now().UTC(),
	}
	logger := p.logger.With().Str("cycle_id", report.CycleID).Logger()

	sports := p.Registry.GetAll()
	if len(sports) == 0 {
		return report, errors.New("no sports registered")
	}

	logger.Info().Int("sports", len(sports)).Msg("cycle started")

	tables := make(map[string]*history.Table) // scoped to this cycle
	var emitted []models.Candidate

	for _, sport := range sports {
		if ctx.Err() != nil {
			break
		}

		sr, candidates := p.runSport(ctx, logger, sport, tables)
		report.Sports = append(report.Sports, sr)
		emitted = append(emitted, candidates...)
	}

	report.Emitted = len(emitted)

	selected, held := p.selectAlerts(emitted)
	report.NotificationsHeld = held
	if held > 0 {
		logger.Info().Int("held", held).Int("max_alerts", p.Options.MaxAlerts).Msg("alert cap reached")
	}

	for _, c := range selected {
		if err := p.Notifier.Send(ctx, notifier.FormatCandidate(c)); err != nil {
			report.NotificationsFail++
			logger.Error().
				Err(err).
				Str("kind", contracts.Kind(err)).
				Str("identity", c.Identity()).
				Msg("notification failed")
			continue
		}
		report.NotificationsSent++
	}

	if p.Recorder != nil && len(emitted) > 0 {
		if err := p.Recorder.Record(ctx, emitted); err != nil {
			logger.Error().Err(err).Int("candidates", len(emitted)).Msg("failed to record candidates")
		}
	}

	if report.Emitted == 0 && p.Options.NotifyEmptyCycle {
		if err := p.Notifier.Send(ctx, notifier.FormatEmptyCycle(report.StartedAt, len(sports))); err != nil {
			report.NotificationsFail++
			logger.Error().Err(err).Msg("empty cycle notification failed")
		} else {
			report.NotificationsSent++
		}
	}

	report.FinishedAt = p.now().UTC()

	if p.Reports != nil {
		p.Reports.RecordCycle(report)
	}

	logger.Info().
		Int("emitted", report.Emitted).
		Int("sent", report.NotificationsSent).
		Int("failed", report.NotificationsFail).
		Dur("duration", report.Duration()).
		Msg("cycle finished")

	return report, nil
}

// runSport fetches, loads history and evaluates one sport
func (p *Pipeline) runSport(
	ctx context.Context,
	logger zerolog.Logger,
	sport contracts.SportModule,
	tables map[string]*history.Table,
) (models.SportReport, []models.Candidate) {
	key := sport.GetSportKey()
	sr := models.SportReport{SportKey: key}
	logger = logger.With().Str("sport", key).Logger()

	var events []models.Event
	result, err := p.Adapter.FetchOdds(ctx, &models.FetchOddsOptions{
		Sport:   key,
		Regions: sport.GetRegions(),
		Markets: p.supportedMarkets(sport),
	})
	if err != nil {
		sr.FetchError = contracts.Kind(err)
		logger.Error().Err(err).Str("kind", sr.FetchError).Msg("fetch failed, treating as empty")
	} else if result != nil {
		events = result.Events
	}
	sr.Events = len(events)

	profile := sport.GetStatsProfile()
	table := p.loadHistory(logger, profile.HistoryCategory, tables)
	sr.HistoryRows = table.Len()

	var est contracts.ProbabilityEstimator
	if table != nil {
		est = history.NewEstimator(table, profile, sport.NormalizeTeamName)
	}

	candidates, stats := p.Evaluator.Evaluate(ctx, key, sport.GetThresholds(), events, est)
	sr.InWindow = stats.InWindow
	sr.Evaluated = stats.Evaluated
	sr.Accepted = stats.Accepted
	sr.Rejected = stats.Rejected
	sr.Duplicates = stats.Duplicates
	sr.InvalidPrices = stats.InvalidPrices

	logger.Info().
		Int("events", sr.Events).
		Int("in_window", sr.InWindow).
		Int("accepted", sr.Accepted).
		Int("rejected", sr.Rejected).
		Int("duplicates", sr.Duplicates).
		Int("history_rows", sr.HistoryRows).
		Msg("sport evaluated")

	return sr, candidates
}

// loadHistory returns the cached table for category, loading it on first use
// within the cycle. Load failures mean no historical blend.
func (p *Pipeline) loadHistory(logger zerolog.Logger, category string, tables map[string]*history.Table) *history.Table {
	if p.History == nil || category == "" {
		return nil
	}
	if table, ok := tables[category]; ok {
		return table
	}

	table, err := p.History.Load(category)
	if err != nil {
		logger.Warn().Err(err).Str("category", category).Msg("history unavailable")
		table = nil
	}
	tables[category] = table
	return table
}

// selectAlerts returns the candidates to notify and how many were held back
// by the cap. Uncapped, every notifiable candidate is kept in emit order.
// Capped, accepted candidates rank ahead of rejected ones and each group is
// ordered by edge, highest first.
func (p *Pipeline) selectAlerts(candidates []models.Candidate) ([]models.Candidate, int) {
	notifiable := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Accepted() || p.Options.NotifyRejected {
			notifiable = append(notifiable, c)
		}
	}

	limit := p.Options.MaxAlerts
	if limit <= 0 || len(notifiable) <= limit {
		return notifiable, 0
	}

	sort.SliceStable(notifiable, func(i, j int) bool {
		if notifiable[i].Accepted() != notifiable[j].Accepted() {
			return notifiable[i].Accepted()
		}
		return notifiable[i].Edge > notifiable[j].Edge
	})
	return notifiable[:limit], len(notifiable) - limit
}

func (p *Pipeline) supportedMarkets(sport contracts.SportModule) []string {
	markets := make([]string, 0, len(sport.GetMarkets()))
	for _, m := range sport.GetMarkets() {
		if p.Adapter.SupportsMarket(m) {
			markets = append(markets, m)
		}
	}
	return markets
}

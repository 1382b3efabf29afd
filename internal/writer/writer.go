// Package writer persists emitted candidates to PostgreSQL and publishes
// them to per-sport Redis streams.
package writer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/pkg/models"
)

const streamKeyFormat = "candidates.%s" // candidates.soccer_epl

const schema = `
CREATE TABLE IF NOT EXISTS alert_candidates (
	id                     BIGSERIAL PRIMARY KEY,
	identity               TEXT NOT NULL UNIQUE,
	sport_key              TEXT NOT NULL,
	event_id               TEXT NOT NULL,
	home_team              TEXT NOT NULL,
	away_team              TEXT NOT NULL,
	commence_time          TIMESTAMPTZ NOT NULL,
	bookmaker              TEXT NOT NULL,
	market_key             TEXT NOT NULL,
	outcome_name           TEXT NOT NULL,
	point                  DECIMAL,
	price                  DECIMAL NOT NULL,
	implied_probability    DECIMAL NOT NULL,
	historical_probability DECIMAL,
	probability            DECIMAL NOT NULL,
	edge                   DECIMAL NOT NULL,
	decision               TEXT NOT NULL,
	reasons                TEXT NOT NULL DEFAULT '',
	evaluated_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_candidates_sport_time
	ON alert_candidates (sport_key, evaluated_at DESC);
`

// Writer records candidate batches. The Redis client is optional.
type Writer struct {
	db     *sql.DB
	redis  *redis.Client
	logger zerolog.Logger
}

// StreamMessage is the JSON payload published for every candidate
type StreamMessage struct {
	Identity              string    `json:"identity"`
	SportKey              string    `json:"sport_key"`
	EventID               string    `json:"event_id"`
	HomeTeam              string    `json:"home_team"`
	AwayTeam              string    `json:"away_team"`
	CommenceTime          time.Time `json:"commence_time"`
	Bookmaker             string    `json:"bookmaker"`
	MarketKey             string    `json:"market_key"`
	OutcomeName           string    `json:"outcome_name"`
	Point                 *float64  `json:"point,omitempty"`
	Price                 float64   `json:"price"`
	ImpliedProbability    float64   `json:"implied_probability"`
	HistoricalProbability *float64  `json:"historical_probability,omitempty"`
	Probability           float64   `json:"probability"`
	Edge                  float64   `json:"edge"`
	Decision              string    `json:"decision"`
	Reasons               []string  `json:"reasons,omitempty"`
	EvaluatedAt           time.Time `json:"evaluated_at"`
}

// NewWriter creates a writer; redisClient may be nil
func NewWriter(db *sql.DB, redisClient *redis.Client) *Writer {
	return &Writer{
		db:     db,
		redis:  redisClient,
		logger: log.With().Str("component", "writer").Logger(),
	}
}

// EnsureSchema creates the candidates table if it does not exist
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create alert_candidates")
	}
	return nil
}

// Record inserts the batch in one transaction, then publishes it to Redis
// streams. Stream failures are logged only; the database is the record.
func (w *Writer) Record(ctx context.Context, candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	inserted, err := w.insertCandidates(ctx, tx, candidates)
	if err != nil {
		return errors.Wrap(err, "insert candidates")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	w.logger.Debug().Int("candidates", len(candidates)).Int64("inserted", inserted).Msg("candidates recorded")

	if w.redis != nil {
		if err := w.publishToStream(ctx, candidates); err != nil {
			w.logger.Warn().Err(err).Msg("publish to stream failed")
		}
	}

	return nil
}

// insertCandidates batch-inserts with UNNEST; identities already stored are
// left untouched
func (w *Writer) insertCandidates(ctx context.Context, tx *sql.Tx, candidates []models.Candidate) (int64, error) {
	query := `
		INSERT INTO alert_candidates (
			identity, sport_key, event_id, home_team, away_team, commence_time,
			bookmaker, market_key, outcome_name, point, price,
			implied_probability, historical_probability, probability, edge,
			decision, reasons, evaluated_at
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::timestamptz[],
			$7::text[], $8::text[], $9::text[], $10::decimal[], $11::decimal[],
			$12::decimal[], $13::decimal[], $14::decimal[], $15::decimal[],
			$16::text[], $17::text[], $18::timestamptz[]
		)
		ON CONFLICT (identity) DO NOTHING
	`

	n := len(candidates)
	identities := make([]string, n)
	sportKeys := make([]string, n)
	eventIDs := make([]string, n)
	homeTeams := make([]string, n)
	awayTeams := make([]string, n)
	commenceTimes := make([]time.Time, n)
	bookmakers := make([]string, n)
	marketKeys := make([]string, n)
	outcomeNames := make([]string, n)
	points := make([]*float64, n)
	prices := make([]float64, n)
	implied := make([]float64, n)
	historical := make([]*float64, n)
	probabilities := make([]float64, n)
	edges := make([]float64, n)
	decisions := make([]string, n)
	reasons := make([]string, n)
	evaluatedAts := make([]time.Time, n)

	for i, c := range candidates {
		identities[i] = c.Identity()
		sportKeys[i] = c.SportKey
		eventIDs[i] = c.EventID
		homeTeams[i] = c.HomeTeam
		awayTeams[i] = c.AwayTeam
		commenceTimes[i] = c.CommenceTime
		bookmakers[i] = c.Bookmaker
		marketKeys[i] = c.MarketKey
		outcomeNames[i] = c.OutcomeName
		points[i] = c.Point
		prices[i] = c.Price
		implied[i] = c.ImpliedProbability
		historical[i] = c.HistoricalProbability
		probabilities[i] = c.Probability
		edges[i] = c.Edge
		decisions[i] = string(c.Decision)
		reasons[i] = strings.Join(c.Reasons, "; ")
		evaluatedAts[i] = c.EvaluatedAt
	}

	result, err := tx.ExecContext(ctx, query,
		pq.Array(identities), pq.Array(sportKeys), pq.Array(eventIDs), pq.Array(homeTeams), pq.Array(awayTeams),
		pq.Array(commenceTimes), pq.Array(bookmakers), pq.Array(marketKeys), pq.Array(outcomeNames),
		pq.Array(points), pq.Array(prices), pq.Array(implied), pq.Array(historical),
		pq.Array(probabilities), pq.Array(edges), pq.Array(decisions), pq.Array(reasons), pq.Array(evaluatedAts),
	)
	if err != nil {
		return 0, err
	}

	inserted, _ := result.RowsAffected()
	return inserted, nil
}

// publishToStream publishes each candidate to its sport's stream
func (w *Writer) publishToStream(ctx context.Context, candidates []models.Candidate) error {
	bySport := make(map[string][]models.Candidate)
	for _, c := range candidates {
		bySport[c.SportKey] = append(bySport[c.SportKey], c)
	}

	for sportKey, sportCandidates := range bySport {
		pipe := w.redis.Pipeline()

		for _, c := range sportCandidates {
			msgJSON, err := sonic.Marshal(toStreamMessage(c))
			if err != nil {
				return errors.Wrap(err, "marshal stream message")
			}

			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: StreamKey(sportKey),
				Values: map[string]interface{}{
					"data": msgJSON,
				},
			})
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return errors.Wrapf(err, "redis pipeline exec for %s", sportKey)
		}
	}

	return nil
}

// StreamKey returns the Redis stream a sport's candidates are published to
func StreamKey(sportKey string) string {
	return fmt.Sprintf(streamKeyFormat, sportKey)
}

func toStreamMessage(c models.Candidate) StreamMessage {
	return StreamMessage{
		Identity:              c.Identity(),
		SportKey:              c.SportKey,
		EventID:               c.EventID,
		HomeTeam:              c.HomeTeam,
		AwayTeam:              c.AwayTeam,
		CommenceTime:          c.CommenceTime,
		Bookmaker:             c.Bookmaker,
		MarketKey:             c.MarketKey,
		OutcomeName:           c.OutcomeName,
		Point:                 c.Point,
		Price:                 c.Price,
		ImpliedProbability:    c.ImpliedProbability,
		HistoricalProbability: c.HistoricalProbability,
		Probability:           c.Probability,
		Edge:                  c.Edge,
		Decision:              string(c.Decision),
		Reasons:               c.Reasons,
		EvaluatedAt:           c.EvaluatedAt,
	}
}

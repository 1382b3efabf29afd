package history

import (
	"strconv"
	"strings"
)

// Column aliases across football-data.co.uk, nflverse and NBA exports
var (
	homeTeamCols  = []string{"HomeTeam", "home_team"}
	awayTeamCols  = []string{"AwayTeam", "away_team"}
	homeScoreCols = []string{"FTHG", "HomeScore", "home_score", "PTS_home"}
	awayScoreCols = []string{"FTAG", "AwayScore", "away_score", "PTS_away"}
)

type match struct {
	home, away string // lower-cased, trimmed
	hs, as     float64
}

// teamRecord aggregates the matches of one team
type teamRecord struct {
	played  int
	wins    int
	diffSum float64
}

func (r teamRecord) winRate() float64 {
	return float64(r.wins) / float64(r.played) * 100
}

func (r teamRecord) avgDiff() float64 {
	return r.diffSum / float64(r.played)
}

// parsedMatches resolves column aliases once and keeps only rows with
// both team names and numeric scores
func (t *Table) parsedMatches() []match {
	t.once.Do(func() {
		for _, row := range t.Rows {
			home := firstValue(row, homeTeamCols)
			away := firstValue(row, awayTeamCols)
			if home == "" || away == "" {
				continue
			}
			hs, ok1 := parseScore(firstValue(row, homeScoreCols))
			as, ok2 := parseScore(firstValue(row, awayScoreCols))
			if !ok1 || !ok2 {
				continue
			}
			t.matches = append(t.matches, match{
				home: teamKey(home),
				away: teamKey(away),
				hs:   hs,
				as:   as,
			})
		}
	})
	return t.matches
}

func firstValue(row map[string]string, cols []string) string {
	for _, c := range cols {
		if v, ok := row[c]; ok && v != "" {
			return v
		}
	}
	return ""
}

func parseScore(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func teamKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (t *Table) record(team string) teamRecord {
	key := teamKey(team)
	var rec teamRecord
	for _, m := range t.parsedMatches() {
		switch key {
		case m.home:
			rec.played++
			rec.diffSum += m.hs - m.as
			if m.hs > m.as {
				rec.wins++
			}
		case m.away:
			rec.played++
			rec.diffSum += m.as - m.hs
			if m.as > m.hs {
				rec.wins++
			}
		}
	}
	return rec
}

// Estimate returns the probability in [0,100] that home beats away:
//
//	50 + 0.5*(winRate_home - winRate_away) + goalDiffWeight*(gd_home - gd_away)
//
// It reports false unless both teams appear in at least one scored row.
func Estimate(t *Table, home, away string, goalDiffWeight float64) (float64, bool) {
	if t == nil {
		return 0, false
	}
	h := t.record(home)
	a := t.record(away)
	if h.played == 0 || a.played == 0 {
		return 0, false
	}

	p := 50 + 0.5*(h.winRate()-a.winRate()) + goalDiffWeight*(h.avgDiff()-a.avgDiff())
	return clamp(p), true
}

// rate returns the share (percent) of matches involving either team that
// satisfy pred
func (t *Table) rate(home, away string, pred func(m match) bool) (float64, bool) {
	if t == nil {
		return 0, false
	}
	hk, ak := teamKey(home), teamKey(away)
	var total, hits int
	for _, m := range t.parsedMatches() {
		if m.home != hk && m.away != hk && m.home != ak && m.away != ak {
			continue
		}
		total++
		if pred(m) {
			hits++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total) * 100, true
}

// DrawRate is the percentage of drawn matches involving either team
func DrawRate(t *Table, home, away string) (float64, bool) {
	return t.rate(home, away, func(m match) bool { return m.hs == m.as })
}

// OverRate is the percentage of matches involving either team whose total
// score exceeds line
func OverRate(t *Table, home, away string, line float64) (float64, bool) {
	return t.rate(home, away, func(m match) bool { return m.hs+m.as > line })
}

// BTTSRate is the percentage of matches involving either team where both
// sides scored
func BTTSRate(t *Table, home, away string) (float64, bool) {
	return t.rate(home, away, func(m match) bool { return m.hs > 0 && m.as > 0 })
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

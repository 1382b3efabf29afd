package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

// Trigger decides when the next cycle is due
type Trigger interface {
	// Next returns the first activation strictly after the given time
	Next(after time.Time) time.Time
	String() string
}

// IntervalTrigger fires at a fixed interval after the previous activation
type IntervalTrigger struct {
	Every time.Duration
}

func (t IntervalTrigger) Next(after time.Time) time.Time {
	return after.Add(t.Every)
}

func (t IntervalTrigger) String() string {
	return "every " + t.Every.String()
}

// CronTrigger fires on a standard 5-field cron schedule; a leading
// CRON_TZ=<zone> selects the time zone
type CronTrigger struct {
	spec     string
	schedule cron.Schedule
}

// NewCronTrigger parses a cron spec
func NewCronTrigger(spec string) (*CronTrigger, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "parse cron spec %q", spec)
	}
	return &CronTrigger{spec: spec, schedule: sched}, nil
}

func (t *CronTrigger) Next(after time.Time) time.Time {
	return t.schedule.Next(after)
}

func (t *CronTrigger) String() string {
	return "cron " + t.spec
}

// DailyTrigger fires at fixed times of day in one time zone
type DailyTrigger struct {
	times     []string
	loc       *time.Location
	schedules []cron.Schedule
}

// NewDailyTrigger parses a comma-separated list of HH:MM times. A nil
// location means UTC.
func NewDailyTrigger(times string, loc *time.Location) (*DailyTrigger, error) {
	if loc == nil {
		loc = time.UTC
	}

	t := &DailyTrigger{loc: loc}
	for _, raw := range strings.Split(times, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		hour, minute, err := parseClock(raw)
		if err != nil {
			return nil, err
		}
		spec := fmt.Sprintf("CRON_TZ=%s %d %d * * *", loc.String(), minute, hour)
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, errors.Wrapf(err, "schedule %s", raw)
		}
		t.times = append(t.times, fmt.Sprintf("%02d:%02d", hour, minute))
		t.schedules = append(t.schedules, sched)
	}

	if len(t.schedules) == 0 {
		return nil, errors.Newf("no valid times in %q", times)
	}
	return t, nil
}

func (t *DailyTrigger) Next(after time.Time) time.Time {
	var next time.Time
	for _, s := range t.schedules {
		n := s.Next(after)
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

func (t *DailyTrigger) String() string {
	return fmt.Sprintf("daily at %s (%s)", strings.Join(t.times, ", "), t.loc)
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.Newf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Newf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Newf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

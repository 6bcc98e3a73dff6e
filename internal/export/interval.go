package export

import (
	"time"

	"github.com/tietracker/tiexport/internal/domain/entity"
)

// Resolver turns an optional date pair into the ordered day keys of an export
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the wall clock for open-ended ranges
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverWithClock creates a resolver with a fixed clock
func NewResolverWithClock(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve returns the inclusive list of YYYY-MM-DD keys between from and to.
// The boolean is false when the range is empty: from missing, or from after to.
// A missing to resolves up to today.
func (r *Resolver) Resolve(from, to *time.Time) ([]string, bool) {
	if from == nil {
		return nil, false
	}

	end := r.now()
	if to != nil {
		end = *to
	}

	start := calendarDay(*from)
	last := calendarDay(end)
	if start.After(last) {
		return nil, false
	}

	days := make([]string, 0, int(last.Sub(start).Hours()/24)+1)
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(entity.DayLayout))
	}

	if len(days) == 0 {
		return nil, false
	}
	return days, true
}

// calendarDay keeps the date as seen in t's own location and drops the clock,
// anchoring it at UTC midnight so iteration is immune to DST shifts
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

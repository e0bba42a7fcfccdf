package service

import (
	"time"

	"rootedinspeech/internal/domain"
)

const (
	dateLayout    = "2006-01-02"
	instantLayout = "2006-01-02T15:04:05.000Z07:00"
)

var clockLayouts = []string{"15:04", "15:04:05"}

// CombineLocal turns a calendar date and a wall-clock time in loc into an absolute
// instant. A wall time skipped by a daylight-saving jump is rejected; a wall time
// that occurs twice resolves to the earlier instant.
func CombineLocal(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "date", Message: "Choose a valid date"}
	}

	var tod time.Time
	parsed := false
	for _, layout := range clockLayouts {
		if tod, err = time.Parse(layout, clock); err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, &domain.ValidationError{Field: "time", Message: "Choose a valid time"}
	}

	wall := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)

	var best time.Time
	found := false
	// zone offsets around the requested wall time cover both sides of any transition
	for _, probe := range []time.Time{wall.Add(-24 * time.Hour), wall, wall.Add(24 * time.Hour)} {
		_, offset := probe.In(loc).Zone()
		candidate := wall.Add(-time.Duration(offset) * time.Second)
		if !sameWallClock(candidate.In(loc), wall) {
			continue
		}
		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}

	if !found {
		return time.Time{}, &domain.ValidationError{
			Field:   "time",
			Message: "That time does not exist on the chosen date because of a daylight saving change. Choose another time",
		}
	}

	return best.UTC(), nil
}

// FormatInstant renders t as a UTC timestamp with millisecond precision.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func sameWallClock(local, wall time.Time) bool {
	y1, m1, d1 := local.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 &&
		local.Hour() == wall.Hour() && local.Minute() == wall.Minute() && local.Second() == wall.Second()
}

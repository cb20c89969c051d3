package rental

import (
	"fmt"
	"time"
)

// =============================================================================
// NIGHT - Day-granular timestamp
// =============================================================================

// Night identifies a single calendar night in UTC. Bookings are keyed by
// (ApartmentID, Night), so two Nights are the same night exactly when their
// normalized values compare equal.
type Night struct {
	t time.Time // always UTC midnight
}

// NewNight builds a Night from a calendar date.
func NewNight(year int, month time.Month, day int) Night {
	return Night{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NightOf truncates an arbitrary instant to its UTC calendar day.
func NightOf(t time.Time) Night {
	u := t.UTC()
	return NewNight(u.Year(), u.Month(), u.Day())
}

// NightFromUnix truncates a unix-seconds timestamp to its UTC calendar day.
// Callers pass raw timestamps on the wire; the engine only ever compares
// whole days.
func NightFromUnix(sec int64) Night {
	return NightOf(time.Unix(sec, 0))
}

func (n Night) Time() time.Time { return n.t }
func (n Night) Unix() int64     { return n.t.Unix() }
func (n Night) IsZero() bool    { return n.t.IsZero() }

func (n Night) Before(o Night) bool { return n.t.Before(o.t) }
func (n Night) After(o Night) bool  { return n.t.After(o.t) }
func (n Night) Equal(o Night) bool  { return n.t.Equal(o.t) }

func (n Night) AddDays(d int) Night { return Night{t: n.t.AddDate(0, 0, d)} }

func (n Night) String() string { return n.t.Format("2006-01-02") }

// ParseNight parses the "2006-01-02" form produced by String.
func ParseNight(s string) (Night, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Night{}, fmt.Errorf("invalid night %q: %w", s, err)
	}
	return NightOf(t), nil
}

// Nights converts a slice of unix-seconds timestamps to Nights.
func Nights(stamps []int64) []Night {
	out := make([]Night, len(stamps))
	for i, s := range stamps {
		out[i] = NightFromUnix(s)
	}
	return out
}

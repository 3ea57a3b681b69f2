package booking

import (
	"fmt"
	"strings"
	"time"
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"

	// InstantLayout is the minute-precision format used when comparing
	// booking instants against declared slot starts.
	InstantLayout = "2006-01-02 15:04"
)

// Slot is a single parsed availability entry. Declared availability has
// drifted between two string shapes over the system's life: a bare time
// range ("09:00-10:00") and a date-qualified range ("2025-06-20 09:00-10:00").
// Both parse into this one variant; Dated tells them apart.
type Slot struct {
	// Raw is the original string the slot was parsed from.
	Raw string
	// Day is midnight UTC of the slot's date; the zero value when Dated is false.
	Day   time.Time
	Dated bool
	// Start and End are wall-clock times on the zero reference date.
	Start time.Time
	End   time.Time
}

// ParseSlot parses a raw availability entry. Malformed entries are an error
// for the caller to skip and log; they must never abort a request.
func ParseSlot(raw string) (Slot, error) {
	s := Slot{Raw: raw}

	rest := strings.TrimSpace(raw)
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		day, err := time.ParseInLocation(slotDateLayout, rest[:i], time.UTC)
		if err != nil {
			return Slot{}, fmt.Errorf("parse slot date in %q: %w", raw, err)
		}
		s.Day = day
		s.Dated = true
		rest = strings.TrimSpace(rest[i+1:])
	}

	startStr, endStr, ok := strings.Cut(rest, "-")
	if !ok {
		return Slot{}, fmt.Errorf("slot %q has no time range", raw)
	}

	start, err := time.Parse(slotTimeLayout, startStr)
	if err != nil {
		return Slot{}, fmt.Errorf("parse slot start in %q: %w", raw, err)
	}
	end, err := time.Parse(slotTimeLayout, endStr)
	if err != nil {
		return Slot{}, fmt.Errorf("parse slot end in %q: %w", raw, err)
	}

	s.Start = start
	s.End = end
	return s, nil
}

// StartInstant returns the bookable date+time the slot begins at, minute
// precision UTC. Bare-time entries carry no date and therefore no bookable
// instant; they report ok=false.
func (s Slot) StartInstant() (time.Time, bool) {
	if !s.Dated {
		return time.Time{}, false
	}
	at := time.Date(s.Day.Year(), s.Day.Month(), s.Day.Day(),
		s.Start.Hour(), s.Start.Minute(), 0, 0, time.UTC)
	return at, true
}

// OnDay reports whether the slot is declared for the given date. day must be
// midnight UTC. Bare-time entries belong to no particular day.
func (s Slot) OnDay(day time.Time) bool {
	return s.Dated && s.Day.Equal(day)
}

// MatchesPeriod classifies the slot's start time against an AM/PM period.
// Noon is the PM boundary: 12:00 is PM, 11:59 is AM. Any other period value
// (including "") matches everything.
func (s Slot) MatchesPeriod(period string) bool {
	switch {
	case strings.EqualFold(period, "AM"):
		return s.Start.Hour() < 12
	case strings.EqualFold(period, "PM"):
		return s.Start.Hour() >= 12
	}
	return true
}

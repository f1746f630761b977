// Package attendance keeps the per-identity, per-day presence records.
// Records are partitioned by calendar day: a new day simply has no record
// until the first match event creates one.
package attendance

import (
	"time"
)

// Intent is what the person asked the kiosk for when the match happened.
// All intents create and update the record identically; check-in and
// check-out additionally stamp the manual timestamps.
type Intent string

const (
	IntentAuto     Intent = "auto"
	IntentCheckIn  Intent = "check-in"
	IntentCheckOut Intent = "check-out"
)

// Record is one identity's presence for one calendar day.
type Record struct {
	Name        string     `json:"name"`
	Entity      string     `json:"entity"`
	FirstSeen   time.Time  `json:"firstSeen"`
	LastSeen    time.Time  `json:"lastSeen"`
	ManualIn    *time.Time `json:"manualIn"`
	ManualOut   *time.Time `json:"manualOut"`
	LastUpdated int64      `json:"lastUpdated"`
	Origin      string     `json:"origin,omitempty"`
}

// CheckedOut reports whether the displayed status is "Checked Out".
// Closing is a status label, not a freeze: the record keeps accepting
// lastSeen updates afterwards.
func (r *Record) CheckedOut() bool {
	return r.ManualOut != nil
}

// Duration is the derived presence span:
// (manualOut ?? lastSeen) - (manualIn ?? firstSeen).
func (r *Record) Duration() time.Duration {
	start := r.FirstSeen
	if r.ManualIn != nil {
		start = *r.ManualIn
	}
	end := r.LastSeen
	if r.ManualOut != nil {
		end = *r.ManualOut
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// DayKey returns the calendar-day partition key for a point in time.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Book is the mutable map of today's records keyed by identity name.
type Book map[string]Record

// Mark applies one match event to the book and returns the updated record.
// The first event of the day for a name creates the record regardless of
// intent; every event updates lastSeen unconditionally. Check-in and
// check-out stamp their manual timestamps idempotently (re-stamping just
// moves the value).
func (b Book) Mark(name, entity string, intent Intent, origin string, now time.Time) Record {
	rec, ok := b[name]
	if !ok {
		rec = Record{
			Name:      name,
			Entity:    entity,
			FirstSeen: now,
		}
	}

	rec.LastSeen = now
	rec.LastUpdated = now.UnixMilli()
	rec.Origin = origin
	if rec.Entity == "" {
		rec.Entity = entity
	}

	switch intent {
	case IntentCheckIn:
		t := now
		rec.ManualIn = &t
	case IntentCheckOut:
		t := now
		rec.ManualOut = &t
	}

	b[name] = rec
	return rec
}

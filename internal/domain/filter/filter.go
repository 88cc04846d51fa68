// Package filter derives a view of the working set from type, status and
// date range criteria.
package filter

import (
	"time"

	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

// DateRange bounds event start times. Both bounds are inclusive and either
// may be nil for an open end.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsEmpty reports whether neither bound is set.
func (r DateRange) IsEmpty() bool { return r.From == nil && r.To == nil }

// Contains reports whether t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Criteria selects events. An empty set places no restriction.
type Criteria struct {
	Types    []types.EventType
	Statuses []types.EventStatus
	Range    DateRange
}

// IsEmpty reports whether c matches every event.
func (c Criteria) IsEmpty() bool {
	return len(c.Types) == 0 && len(c.Statuses) == 0 && c.Range.IsEmpty()
}

// Matches reports whether e satisfies all three predicates of c.
func Matches(e model.CalendarEvent, c Criteria) bool {
	return contains(c.Types, e.Type) && contains(c.Statuses, e.Status) && c.Range.Contains(e.Start)
}

// Apply returns the events matching c in input order. An empty c returns
// events itself.
func Apply(events []model.CalendarEvent, c Criteria) []model.CalendarEvent {
	if c.IsEmpty() {
		return events
	}
	m := compile(c)
	out := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		if m.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// matcher holds criteria sets as maps for one linear pass.
type matcher struct {
	types    map[types.EventType]struct{}
	statuses map[types.EventStatus]struct{}
	span     DateRange
}

func compile(c Criteria) matcher {
	return matcher{types: toSet(c.Types), statuses: toSet(c.Statuses), span: c.Range}
}

func (m matcher) match(e model.CalendarEvent) bool {
	if len(m.types) > 0 {
		if _, ok := m.types[e.Type]; !ok {
			return false
		}
	}
	if len(m.statuses) > 0 {
		if _, ok := m.statuses[e.Status]; !ok {
			return false
		}
	}
	return m.span.Contains(e.Start)
}

func toSet[T comparable](vals []T) map[T]struct{} {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

func contains[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/okian/cadence/internal/domain/filter"
	"github.com/okian/cadence/internal/domain/types"
)

const dateOnly = "2006-01-02"

// parseCriteria reads type, status, from and to. Lists may be comma separated
// or repeated. A date-only "to" covers the whole day.
func parseCriteria(q url.Values, loc *time.Location) (filter.Criteria, error) {
	var c filter.Criteria

	for _, raw := range splitList(q["type"]) {
		t, err := types.ParseEventType(raw)
		if err != nil {
			return filter.Criteria{}, err
		}
		c.Types = append(c.Types, t)
	}
	for _, raw := range splitList(q["status"]) {
		st, err := types.ParseEventStatus(raw)
		if err != nil {
			return filter.Criteria{}, err
		}
		c.Statuses = append(c.Statuses, st)
	}

	from, err := parseBound(q.Get("from"), loc, false)
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("%w: from: %v", ErrBadQuery, err)
	}
	to, err := parseBound(q.Get("to"), loc, true)
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("%w: to: %v", ErrBadQuery, err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return filter.Criteria{}, fmt.Errorf("%w: to is before from", ErrBadQuery)
	}
	c.Range = filter.DateRange{From: from, To: to}
	return c, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseBound(raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.ParseInLocation(dateOnly, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", raw)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	d = d.UTC()
	return &d, nil
}

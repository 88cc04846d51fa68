package ics

import (
	"bytes"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Summary describes the contents of a calendar file.
type Summary struct {
	ProductID string
	Events    int
	UIDs      []string
	First     time.Time // earliest DTSTART, zero when unknown
	Last      time.Time // latest DTSTART, zero when unknown
	Bytes     int
}

// Inspect parses blob and summarizes its VEVENTs.
func Inspect(blob []byte) (Summary, error) {
	trimmed := bytes.TrimPrefix(bytes.TrimSpace(blob), []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(bytes.ToUpper(trimmed[:min(len(trimmed), 15)]), []byte("BEGIN:VCALENDAR")) {
		return Summary{}, fmt.Errorf("%w: missing BEGIN:VCALENDAR", ErrInvalidCalendar)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(trimmed))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	s := Summary{Bytes: len(blob)}
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ical.PropertyProductId) {
			s.ProductID = p.Value
		}
	}

	for _, ve := range cal.Events() {
		s.Events++
		if uid := ve.Id(); uid != "" {
			s.UIDs = append(s.UIDs, uid)
		}
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		if s.First.IsZero() || start.Before(s.First) {
			s.First = start
		}
		if start.After(s.Last) {
			s.Last = start
		}
	}
	return s, nil
}

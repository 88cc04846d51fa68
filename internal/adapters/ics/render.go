// Package ics renders and inspects iCalendar files for the working set.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

// Filename is the name calendar downloads are saved under.
const Filename = "calendar-events.ics"

// ContentType is the MIME type of rendered calendars.
const ContentType = "text/calendar; charset=utf-8"

// PropertyStatus carries the scheduler status where STATUS cannot express it.
const PropertyStatus ical.ComponentProperty = "X-CADENCE-STATUS"

const productID = "-//okian//cadence//EN"

// ErrInvalidCalendar is returned by Inspect for blobs that are not calendars.
var ErrInvalidCalendar = errors.New("invalid calendar file")

// Option configures Render.
type Option func(*renderer)

type renderer struct {
	domain string
	name   string
	now    func() time.Time
}

// WithDomain sets the right hand side of every UID.
func WithDomain(domain string) Option {
	return func(r *renderer) {
		if d := strings.TrimSpace(domain); d != "" {
			r.domain = d
		}
	}
}

// WithCalendarName sets X-WR-CALNAME.
func WithCalendarName(name string) Option {
	return func(r *renderer) {
		r.name = name
	}
}

// WithClock overrides the DTSTAMP time source.
func WithClock(now func() time.Time) Option {
	return func(r *renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Render writes events as a VCALENDAR with one VEVENT each.
func Render(events []model.CalendarEvent, opts ...Option) ([]byte, error) {
	r := &renderer{domain: "cadence.local", name: "Cadence", now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if r.name != "" {
		cal.SetXWRCalName(r.name)
	}

	stamp := r.now().UTC()
	for _, e := range events {
		if err := r.addEvent(cal, e, stamp); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) addEvent(cal *ical.Calendar, e model.CalendarEvent, stamp time.Time) error {
	if e.ID == "" {
		return fmt.Errorf("render event %q: empty id", e.Title)
	}

	ve := cal.AddEvent(e.ID + "@" + r.domain)
	ve.SetDtStampTime(stamp)
	ve.SetStartAt(e.Start.UTC())
	ve.SetEndAt(e.End.UTC())
	ve.SetSummary(e.Title)
	if !e.CreatedAt.IsZero() {
		ve.SetCreatedTime(e.CreatedAt.UTC())
	}
	if !e.UpdatedAt.IsZero() {
		ve.SetModifiedAt(e.UpdatedAt.UTC())
	}
	if desc := description(e); desc != "" {
		ve.SetDescription(desc)
	}
	if e.Location != "" {
		ve.SetLocation(e.Location)
	}
	if e.MeetingLink != "" {
		ve.SetURL(e.MeetingLink)
	}

	status, extra := mapStatus(e.Status)
	ve.SetStatus(status)
	if extra {
		ve.SetProperty(PropertyStatus, e.Status.String())
	}
	ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(e.Type.String()))
	return nil
}

// mapStatus maps a scheduler status to STATUS. extra reports whether the
// original status must be kept in X-CADENCE-STATUS.
func mapStatus(s types.EventStatus) (ical.ObjectStatus, bool) {
	switch s {
	case types.EventStatusScheduled, types.EventStatusRescheduled:
		return ical.ObjectStatusConfirmed, s == types.EventStatusRescheduled
	case types.EventStatusCompleted:
		return ical.ObjectStatusConfirmed, true
	case types.EventStatusCancelled:
		return ical.ObjectStatusCancelled, false
	}
	return ical.ObjectStatusTentative, true
}

func description(e model.CalendarEvent) string {
	var parts []string
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Notes != "" {
		parts = append(parts, "Notes: "+e.Notes)
	}
	if e.CandidateName != "" {
		c := "Candidate: " + e.CandidateName
		if e.CandidateEmail != "" {
			c += " <" + e.CandidateEmail + ">"
		}
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n")
}

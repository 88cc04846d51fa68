package model

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/pkg/logger"
	"github.com/okian/cadence/pkg/metrics"
)

// Drop reasons reported on the events_dropped metric.
const (
	DropReasonMalformed   = "malformed"
	DropReasonUnknownEnum = "unknown_enum"
)

// timestampLayouts are tried in order. Zone-less forms are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// FormatTimestamp renders t the way Serialize does.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Normalize converts a wire record into a CalendarEvent.
func Normalize(raw WireEvent) (CalendarEvent, error) {
	id := strings.TrimSpace(raw.ID.String())
	if id == "" {
		return CalendarEvent{}, &MalformedEventError{Field: "id", Reason: "is empty"}
	}

	start, err := requiredTime(id, "start", raw.Start)
	if err != nil {
		return CalendarEvent{}, err
	}
	end, err := requiredTime(id, "end", raw.End)
	if err != nil {
		return CalendarEvent{}, err
	}
	if !end.After(start) {
		return CalendarEvent{}, &MalformedEventError{ID: id, Field: "end", Reason: "is not after start"}
	}

	et, err := types.ParseEventType(raw.Type)
	if err != nil {
		return CalendarEvent{}, &UnknownEnumValueError{ID: id, Field: "type", Value: raw.Type, Err: err}
	}
	st, err := types.ParseEventStatus(raw.Status)
	if err != nil {
		return CalendarEvent{}, &UnknownEnumValueError{ID: id, Field: "status", Value: raw.Status, Err: err}
	}

	created, err := optionalTime(id, "created_at", raw.CreatedAt)
	if err != nil {
		return CalendarEvent{}, err
	}
	updated, err := optionalTime(id, "updated_at", raw.UpdatedAt)
	if err != nil {
		return CalendarEvent{}, err
	}

	return CalendarEvent{
		ID:             id,
		Title:          raw.Title,
		Start:          start,
		End:            end,
		Type:           et,
		Status:         st,
		Description:    raw.Description,
		Location:       raw.Location,
		Notes:          raw.Notes,
		MeetingLink:    raw.MeetingLink,
		CandidateName:  raw.CandidateName,
		CandidateEmail: raw.CandidateEmail,
		JobID:          raw.JobID.String(),
		ApplicationID:  raw.ApplicationID.String(),
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, nil
}

// Serialize converts an event back to its wire shape.
func Serialize(e CalendarEvent) WireEvent {
	return WireEvent{
		ID:             FlexID(e.ID),
		Title:          e.Title,
		Description:    e.Description,
		Start:          FormatTimestamp(e.Start),
		End:            FormatTimestamp(e.End),
		Type:           e.Type.String(),
		Status:         e.Status.String(),
		Location:       e.Location,
		Notes:          e.Notes,
		MeetingLink:    e.MeetingLink,
		CandidateName:  e.CandidateName,
		CandidateEmail: e.CandidateEmail,
		JobID:          FlexID(e.JobID),
		ApplicationID:  FlexID(e.ApplicationID),
		CreatedAt:      FormatTimestamp(e.CreatedAt),
		UpdatedAt:      FormatTimestamp(e.UpdatedAt),
	}
}

// NormalizeAll normalizes raws in order. Records that fail are dropped with a
// warning and returned as errors; one bad record never blocks the rest.
func NormalizeAll(ctx context.Context, raws []WireEvent, log logger.Logger) ([]CalendarEvent, []error) {
	events := make([]CalendarEvent, 0, len(raws))
	var dropped []error
	for i, raw := range raws {
		ev, err := Normalize(raw)
		if err != nil {
			reason := DropReasonMalformed
			if errors.Is(err, ErrUnknownEnumValue) {
				reason = DropReasonUnknownEnum
			}
			metrics.RecordEventDropped(reason)
			if log != nil {
				log.Warn(ctx, "dropping event record",
					logger.Int("index", i),
					logger.String("id", raw.ID.String()),
					logger.String("reason", reason),
					logger.Error(err),
				)
			}
			dropped = append(dropped, err)
			continue
		}
		events = append(events, ev)
	}
	metrics.RecordEventsNormalized(len(events))
	return events, dropped
}

func requiredTime(id, field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, &MalformedEventError{ID: id, Field: field, Reason: "is missing"}
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, &MalformedEventError{ID: id, Field: field, Reason: "is not a timestamp", Err: err}
	}
	return t, nil
}

func optionalTime(id, field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return requiredTime(id, field, value)
}

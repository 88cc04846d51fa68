// Package types contains the closed enumerations shared across the scheduler.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEventType is returned when a string is not one of the event types.
var ErrUnknownEventType = errors.New("unknown event type")

// ErrUnknownEventStatus is returned when a string is not one of the event statuses.
var ErrUnknownEventStatus = errors.New("unknown event status")

// EventType classifies a calendar event. It is fixed at creation.
type EventType string

// Event types.
const (
	EventTypeInterview EventType = "interview"
	EventTypeMeeting   EventType = "meeting"
	EventTypeDeadline  EventType = "deadline"
	EventTypeOther     EventType = "other"
)

// EventStatus is the lifecycle state of a calendar event.
type EventStatus string

// Event statuses. Every event starts as scheduled.
const (
	EventStatusScheduled   EventStatus = "scheduled"
	EventStatusCompleted   EventStatus = "completed"
	EventStatusCancelled   EventStatus = "cancelled"
	EventStatusRescheduled EventStatus = "rescheduled"
)

// AllEventTypes returns every event type in display order.
func AllEventTypes() []EventType {
	return []EventType{EventTypeInterview, EventTypeMeeting, EventTypeDeadline, EventTypeOther}
}

// AllEventStatuses returns every event status in display order.
func AllEventStatuses() []EventStatus {
	return []EventStatus{EventStatusScheduled, EventStatusCompleted, EventStatusCancelled, EventStatusRescheduled}
}

// ParseEventType parses s into an EventType. Matching is exact after trimming.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return t, nil
}

// ParseEventStatus parses s into an EventStatus. Matching is exact after trimming.
func ParseEventStatus(s string) (EventStatus, error) {
	st := EventStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventStatus, s)
	}
	return st, nil
}

// Valid reports whether t is a declared event type.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeInterview, EventTypeMeeting, EventTypeDeadline, EventTypeOther:
		return true
	}
	return false
}

func (t EventType) String() string { return string(t) }

// Label returns the human readable name of t.
func (t EventType) Label() string {
	switch t {
	case EventTypeInterview:
		return "Interview"
	case EventTypeMeeting:
		return "Meeting"
	case EventTypeDeadline:
		return "Deadline"
	case EventTypeOther:
		return "Other"
	}
	return "Unknown"
}

// Color returns the hex color used when rendering events of type t.
func (t EventType) Color() string {
	switch t {
	case EventTypeInterview:
		return "#2563eb"
	case EventTypeMeeting:
		return "#16a34a"
	case EventTypeDeadline:
		return "#dc2626"
	case EventTypeOther:
		return "#6b7280"
	}
	return "#000000"
}

// Valid reports whether s is a declared event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusCompleted, EventStatusCancelled, EventStatusRescheduled:
		return true
	}
	return false
}

func (s EventStatus) String() string { return string(s) }

// Label returns the human readable name of s.
func (s EventStatus) Label() string {
	switch s {
	case EventStatusScheduled:
		return "Scheduled"
	case EventStatusCompleted:
		return "Completed"
	case EventStatusCancelled:
		return "Cancelled"
	case EventStatusRescheduled:
		return "Rescheduled"
	}
	return "Unknown"
}

// Badge returns the badge variant a UI uses for s.
func (s EventStatus) Badge() string {
	switch s {
	case EventStatusScheduled:
		return "default"
	case EventStatusCompleted:
		return "success"
	case EventStatusCancelled:
		return "destructive"
	case EventStatusRescheduled:
		return "warning"
	}
	return "outline"
}

// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/cadence/internal/domain/types"
)

// CalendarEvent is a normalized event held in the working set.
// Start and End are UTC and End is always after Start.
type CalendarEvent struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	Type           types.EventType   `json:"type"`
	Status         types.EventStatus `json:"status"`
	Description    string            `json:"description,omitempty"`
	Location       string            `json:"location,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	MeetingLink    string            `json:"meeting_link,omitempty"`
	CandidateName  string            `json:"candidate_name,omitempty"`
	CandidateEmail string            `json:"candidate_email,omitempty"`
	JobID          string            `json:"job_id,omitempty"`
	ApplicationID  string            `json:"application_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"` // server managed
	UpdatedAt      time.Time         `json:"updated_at"` // server managed
}

// Duration returns End - Start.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// WireEvent is the record shape exchanged with the event store.
type WireEvent struct {
	ID             FlexID `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	MeetingLink    string `json:"meeting_link,omitempty"`
	CandidateName  string `json:"candidate_name,omitempty"`
	CandidateEmail string `json:"candidate_email,omitempty"`
	JobID          FlexID `json:"job_id,omitempty"`
	ApplicationID  FlexID `json:"application_id,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// FlexID is an identifier the store may send as a JSON string or number.
type FlexID string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", b)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// EventDraft is the user input for a new event before validation.
// Dates are YYYY-MM-DD and times HH:MM or HH:MM:SS.
type EventDraft struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	StartDate      string `json:"start_date"`
	StartTime      string `json:"start_time"`
	EndDate        string `json:"end_date"`
	EndTime        string `json:"end_time"`
	Type           string `json:"type"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	MeetingLink    string `json:"meeting_link,omitempty"`
	CandidateName  string `json:"candidate_name,omitempty"`
	CandidateEmail string `json:"candidate_email,omitempty"`
	JobID          FlexID `json:"job_id,omitempty"`
	ApplicationID  FlexID `json:"application_id,omitempty"`
}

// CreatePayload is the body sent to the store to create an event.
type CreatePayload struct {
	EventDraft
	Start  string            `json:"start"`
	End    string            `json:"end"`
	Status types.EventStatus `json:"status"`
}

// Package validation checks event drafts before they are sent to the store.
// Every rule runs on every call; a Result carries all failing fields at once.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// Draft field names used as Result keys.
const (
	FieldTitle          = "title"
	FieldStartDate      = "start_date"
	FieldStartTime      = "start_time"
	FieldEndDate        = "end_date"
	FieldEndTime        = "end_time"
	FieldType           = "type"
	FieldCandidateName  = "candidate_name"
	FieldCandidateEmail = "candidate_email"
)

// User facing messages.
const (
	MsgTitleRequired         = "Title is required"
	MsgStartDateRequired     = "Start date is required"
	MsgStartTimeRequired     = "Start time is required"
	MsgStartDateInvalid      = "Start date is invalid"
	MsgStartTimeInvalid      = "Start time is invalid"
	MsgEndDateRequired       = "End date is required"
	MsgEndTimeRequired       = "End time is required"
	MsgEndDateInvalid        = "End date is invalid"
	MsgEndTimeInvalid        = "End time is invalid"
	MsgEndBeforeStart        = "End time must be after start time"
	MsgTypeRequired          = "Event type is required"
	MsgTypeInvalid           = "Event type is invalid"
	MsgCandidateNameRequired = "Candidate name is required for interviews"
	MsgCandidateEmailInvalid = "Candidate email is invalid"
)

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Option configures Validate and Compose.
type Option func(*settings)

type settings struct {
	loc *time.Location
}

// WithLocation sets the zone draft dates and times are read in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Result is the outcome of Validate.
type Result struct {
	fields map[string][]string
	start  time.Time
	end    time.Time
	typ    types.EventType
}

// OK reports whether no rule failed.
func (r Result) OK() bool { return len(r.fields) == 0 }

// Fields returns a copy of the field to messages map.
func (r Result) Fields() map[string][]string {
	out := make(map[string][]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = slices.Clone(v)
	}
	return out
}

// Messages returns the messages recorded for field.
func (r Result) Messages(field string) []string {
	return slices.Clone(r.fields[field])
}

// Err returns a *ValidationError, or nil when r is OK.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Fields: r.Fields()}
}

func (r *Result) add(field, msg string) {
	if r.fields == nil {
		r.fields = make(map[string][]string)
	}
	r.fields[field] = append(r.fields[field], msg)
}

// ValidationError carries every failing field of a draft.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate runs every rule against d.
func Validate(d model.EventDraft, opts ...Option) Result {
	s := &settings{loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}

	var r Result

	if strings.TrimSpace(d.Title) == "" {
		r.add(FieldTitle, MsgTitleRequired)
	}

	startDate, okSD := parsePart(&r, d.StartDate, FieldStartDate, MsgStartDateRequired, MsgStartDateInvalid, dateLayout)
	startTime, okST := parsePart(&r, d.StartTime, FieldStartTime, MsgStartTimeRequired, MsgStartTimeInvalid, clockLayouts...)
	endDate, okED := parsePart(&r, d.EndDate, FieldEndDate, MsgEndDateRequired, MsgEndDateInvalid, dateLayout)
	endTime, okET := parsePart(&r, d.EndTime, FieldEndTime, MsgEndTimeRequired, MsgEndTimeInvalid, clockLayouts...)

	if okSD && okST && okED && okET {
		r.start = combine(startDate, startTime, s.loc)
		r.end = combine(endDate, endTime, s.loc)
		if !r.end.After(r.start) {
			r.add(FieldEndTime, MsgEndBeforeStart)
		}
	}

	switch raw := strings.TrimSpace(d.Type); {
	case raw == "":
		r.add(FieldType, MsgTypeRequired)
	default:
		et, err := types.ParseEventType(raw)
		if err != nil {
			r.add(FieldType, MsgTypeInvalid)
			break
		}
		r.typ = et
		if et == types.EventTypeInterview && strings.TrimSpace(d.CandidateName) == "" {
			r.add(FieldCandidateName, MsgCandidateNameRequired)
		}
	}

	if email := strings.TrimSpace(d.CandidateEmail); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			r.add(FieldCandidateEmail, MsgCandidateEmailInvalid)
		}
	}

	return r
}

// Compose validates d and builds the store payload with UTC start and end.
func Compose(d model.EventDraft, opts ...Option) (model.CreatePayload, error) {
	r := Validate(d, opts...)
	if err := r.Err(); err != nil {
		return model.CreatePayload{}, err
	}

	draft := d
	draft.Title = strings.TrimSpace(d.Title)
	draft.Type = r.typ.String()
	draft.CandidateName = strings.TrimSpace(d.CandidateName)
	draft.CandidateEmail = strings.TrimSpace(d.CandidateEmail)

	return model.CreatePayload{
		EventDraft: draft,
		Start:      model.FormatTimestamp(r.start),
		End:        model.FormatTimestamp(r.end),
		Status:     types.EventStatusScheduled,
	}, nil
}

// parsePart records a required or invalid message for field and reports
// whether value parsed with one of layouts.
func parsePart(r *Result, value, field, required, invalid string, layouts ...string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		r.add(field, required)
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	r.add(field, invalid)
	return time.Time{}, false
}

func combine(date, clock time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc).UTC()
}

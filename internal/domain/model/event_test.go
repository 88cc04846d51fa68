package model_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func validWire() model.WireEvent {
	return model.WireEvent{
		ID:             "17",
		Title:          "Onsite with Ada",
		Start:          "2024-03-04T09:30:00Z",
		End:            "2024-03-04T10:30:00Z",
		Type:           "interview",
		Status:         "scheduled",
		Location:       "Room 4",
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		JobID:          "88",
		CreatedAt:      "2024-02-01T12:00:00Z",
		UpdatedAt:      "2024-02-02T12:00:00.5Z",
	}
}

func TestNormalize(t *testing.T) {
	convey.Convey("Given a wire record", t, func() {
		convey.Convey("When every field is well formed", func() {
			ev, err := model.Normalize(validWire())

			convey.Convey("Then a typed UTC event is produced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ev.ID, convey.ShouldEqual, "17")
				convey.So(ev.Type, convey.ShouldEqual, types.EventTypeInterview)
				convey.So(ev.Status, convey.ShouldEqual, types.EventStatusScheduled)
				convey.So(ev.Start.Equal(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)), convey.ShouldBeTrue)
				convey.So(ev.Duration(), convey.ShouldEqual, time.Hour)
				convey.So(ev.JobID, convey.ShouldEqual, "88")
				convey.So(ev.UpdatedAt.Nanosecond(), convey.ShouldEqual, 500_000_000)
			})
		})

		convey.Convey("When times carry an offset", func() {
			raw := validWire()
			raw.Start = "2024-03-04T11:30:00+02:00"
			raw.End = "2024-03-04T12:30:00+02:00"
			ev, err := model.Normalize(raw)

			convey.Convey("Then they are converted to UTC", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ev.Start.Location(), convey.ShouldEqual, time.UTC)
				convey.So(ev.Start.Hour(), convey.ShouldEqual, 9)
			})
		})

		convey.Convey("When times use other ISO-8601 zone forms", func() {
			cases := map[string]time.Time{
				"2024-01-01T10:00:00+0000":      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				"2024-01-01T12:00:00+0200":      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				"2024-01-01T10:00:00.250-0130":  time.Date(2024, 1, 1, 11, 30, 0, 250_000_000, time.UTC),
				"2024-01-01T10:00Z":             time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				"2024-01-01T12:00+02:00":        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				"2024-01-01T12:00+0200":         time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				" 2024-01-01T10:00:00.5+00:00 ": time.Date(2024, 1, 1, 10, 0, 0, 500_000_000, time.UTC),
			}

			convey.Convey("Then each parses to the same UTC instant", func() {
				for in, want := range cases {
					got, err := model.ParseTimestamp(in)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got.Equal(want), convey.ShouldBeTrue)
					convey.So(got.Location(), convey.ShouldEqual, time.UTC)
				}
			})

			convey.Convey("Then a record using the basic offset is kept", func() {
				raw := validWire()
				raw.Start = "2024-03-04T09:30:00+0000"
				raw.End = "2024-03-04T10:30Z"
				ev, err := model.Normalize(raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(ev.Duration(), convey.ShouldEqual, time.Hour)
			})
		})

		convey.Convey("When times have no zone", func() {
			raw := validWire()
			raw.Start = "2024-03-04T09:30"
			raw.End = "2024-03-04T10:30:00"
			ev, err := model.Normalize(raw)

			convey.Convey("Then they are read as UTC", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ev.Start.Equal(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When start is unparsable", func() {
			raw := validWire()
			raw.Start = "next tuesday"
			_, err := model.Normalize(raw)

			convey.Convey("Then a MalformedEventError is returned", func() {
				var me *model.MalformedEventError
				convey.So(errors.As(err, &me), convey.ShouldBeTrue)
				convey.So(me.Field, convey.ShouldEqual, "start")
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When end is missing", func() {
			raw := validWire()
			raw.End = ""
			_, err := model.Normalize(raw)

			convey.Convey("Then the record is malformed", func() {
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When end equals start", func() {
			raw := validWire()
			raw.End = raw.Start
			_, err := model.Normalize(raw)

			convey.Convey("Then the ordering invariant rejects it", func() {
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "not after start")
			})
		})

		convey.Convey("When the id is empty", func() {
			raw := validWire()
			raw.ID = " "
			_, err := model.Normalize(raw)

			convey.Convey("Then the record is malformed", func() {
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the type is undeclared", func() {
			raw := validWire()
			raw.Type = "webinar"
			_, err := model.Normalize(raw)

			convey.Convey("Then an UnknownEnumValueError is returned instead of a default", func() {
				var ue *model.UnknownEnumValueError
				convey.So(errors.As(err, &ue), convey.ShouldBeTrue)
				convey.So(ue.Field, convey.ShouldEqual, "type")
				convey.So(ue.Value, convey.ShouldEqual, "webinar")
				convey.So(errors.Is(err, model.ErrUnknownEnumValue), convey.ShouldBeTrue)
				convey.So(errors.Is(err, types.ErrUnknownEventType), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the status is undeclared", func() {
			raw := validWire()
			raw.Status = "archived"
			_, err := model.Normalize(raw)

			convey.Convey("Then an UnknownEnumValueError is returned", func() {
				convey.So(errors.Is(err, types.ErrUnknownEventStatus), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When created_at is garbage", func() {
			raw := validWire()
			raw.CreatedAt = "yesterday"
			_, err := model.Normalize(raw)

			convey.Convey("Then the record is malformed", func() {
				convey.So(errors.Is(err, model.ErrMalformedEvent), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRoundTrip(t *testing.T) {
	convey.Convey("Given valid in-memory events", t, func() {
		events := []model.CalendarEvent{
			{
				ID:             "1",
				Title:          "Phone screen",
				Start:          time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				End:            time.Date(2024, 1, 1, 10, 45, 0, 0, time.UTC),
				Type:           types.EventTypeInterview,
				Status:         types.EventStatusRescheduled,
				Description:    "Intro call",
				Location:       "Zoom",
				Notes:          "Bring CV",
				MeetingLink:    "https://meet.example.com/abc",
				CandidateName:  "Grace Hopper",
				CandidateEmail: "grace@example.com",
				JobID:          "12",
				ApplicationID:  "34",
				CreatedAt:      time.Date(2023, 12, 1, 8, 0, 0, 123456789, time.UTC),
				UpdatedAt:      time.Date(2023, 12, 2, 8, 0, 0, 0, time.UTC),
			},
			{
				ID:     "2",
				Title:  "Offer deadline",
				Start:  time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC),
				End:    time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
				Type:   types.EventTypeDeadline,
				Status: types.EventStatusCancelled,
			},
		}

		convey.Convey("When each is serialized and normalized again", func() {
			convey.Convey("Then no field is lost", func() {
				for _, want := range events {
					got, err := model.Normalize(model.Serialize(want))
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldResemble, want)
				}
			})
		})

		convey.Convey("When serialized through JSON", func() {
			b, err := json.Marshal(model.Serialize(events[0]))
			convey.So(err, convey.ShouldBeNil)

			var wire model.WireEvent
			convey.So(json.Unmarshal(b, &wire), convey.ShouldBeNil)
			got, err := model.Normalize(wire)

			convey.Convey("Then the event survives the wire", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, events[0])
			})
		})
	})
}

func TestFlexID(t *testing.T) {
	convey.Convey("Given ids encoded in different JSON forms", t, func() {
		var w struct {
			ID    model.FlexID `json:"id"`
			JobID model.FlexID `json:"job_id"`
			AppID model.FlexID `json:"application_id"`
		}

		convey.Convey("When decoding numbers, strings and null", func() {
			err := json.Unmarshal([]byte(`{"id": 42, "job_id": " j-7 ", "application_id": null}`), &w)

			convey.Convey("Then all become strings", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.ID, convey.ShouldEqual, model.FlexID("42"))
				convey.So(w.JobID, convey.ShouldEqual, model.FlexID("j-7"))
				convey.So(w.AppID, convey.ShouldEqual, model.FlexID(""))
			})
		})

		convey.Convey("When decoding a boolean", func() {
			err := json.Unmarshal([]byte(`{"id": true}`), &w)

			convey.Convey("Then decoding fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNormalizeAll(t *testing.T) {
	convey.Convey("Given a batch with bad records in the middle", t, func() {
		bad := validWire()
		bad.ID = "18"
		bad.Status = "archived"
		broken := validWire()
		broken.ID = "19"
		broken.Start = "soon"
		good := validWire()
		good.ID = "20"

		events, errs := model.NormalizeAll(context.Background(), []model.WireEvent{validWire(), bad, broken, good}, logger.NewNop())

		convey.Convey("Then bad records are dropped and order is kept", func() {
			convey.So(len(events), convey.ShouldEqual, 2)
			convey.So(events[0].ID, convey.ShouldEqual, "17")
			convey.So(events[1].ID, convey.ShouldEqual, "20")
			convey.So(len(errs), convey.ShouldEqual, 2)
			convey.So(errors.Is(errs[0], model.ErrUnknownEnumValue), convey.ShouldBeTrue)
			convey.So(errors.Is(errs[1], model.ErrMalformedEvent), convey.ShouldBeTrue)
		})
	})
}

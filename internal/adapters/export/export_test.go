package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/cadence/internal/adapters/export"
	. "github.com/smartystreets/goconvey/convey"
)

const blob = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

func TestWriter(t *testing.T) {
	Convey("Given a writer on a fresh directory", t, func() {
		dir := filepath.Join(t.TempDir(), "nested", "exports")
		w := export.NewWriter(dir)

		Convey("When a blob is written", func() {
			err := w.Write(context.Background(), []byte(blob))

			Convey("Then the calendar file holds it with owner-only permissions", func() {
				So(err, ShouldBeNil)
				So(w.Path(), ShouldEqual, filepath.Join(dir, "calendar-events.ics"))
				got, err := os.ReadFile(w.Path())
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, blob)
				info, err := os.Stat(w.Path())
				So(err, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
			})

			Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When a second blob replaces the first", func() {
			So(w.Write(context.Background(), []byte("old")), ShouldBeNil)
			So(w.Write(context.Background(), []byte(blob)), ShouldBeNil)

			Convey("Then only the new content remains", func() {
				got, _ := os.ReadFile(w.Path())
				So(string(got), ShouldEqual, blob)
			})
		})
	})

	Convey("Given a writer without a directory", t, func() {
		err := export.NewWriter("").Write(context.Background(), []byte(blob))

		Convey("Then ErrNoDirectory is returned", func() {
			So(errors.Is(err, export.ErrNoDirectory), ShouldBeTrue)
		})
	})
}

func TestJob(t *testing.T) {
	Convey("Given an export job", t, func() {
		dir := t.TempDir()
		w := export.NewWriter(dir)

		Convey("When the schedule is invalid", func() {
			_, err := export.NewJob("every tuesday", func(context.Context) ([]byte, error) { return nil, nil }, w)

			Convey("Then construction fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When run once with a healthy source", func() {
			job, err := export.NewJob("*/30 * * * *", func(context.Context) ([]byte, error) { return []byte(blob), nil }, w)
			So(err, ShouldBeNil)

			Convey("Then the file is written", func() {
				So(job.RunOnce(context.Background()), ShouldBeNil)
				got, err := os.ReadFile(w.Path())
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, blob)
			})
		})

		Convey("When the source fails", func() {
			boom := errors.New("store down")
			So(w.Write(context.Background(), []byte("previous")), ShouldBeNil)
			job, err := export.NewJob("*/30 * * * *", func(context.Context) ([]byte, error) { return nil, boom }, w)
			So(err, ShouldBeNil)

			Convey("Then the error surfaces and the previous file is kept", func() {
				So(errors.Is(job.RunOnce(context.Background()), boom), ShouldBeTrue)
				got, _ := os.ReadFile(w.Path())
				So(string(got), ShouldEqual, "previous")
			})
		})

		Convey("When started on a short schedule", func() {
			ran := make(chan struct{}, 1)
			job, err := export.NewJob("@every 1s", func(context.Context) ([]byte, error) {
				select {
				case ran <- struct{}{}:
				default:
				}
				return []byte(blob), nil
			}, w)
			So(err, ShouldBeNil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			So(job.Start(ctx), ShouldBeNil)
			defer job.Stop()

			Convey("Then the export runs without being triggered", func() {
				select {
				case <-ran:
				case <-time.After(5 * time.Second):
					t.Fatal("export job never ran")
				}
				So(job.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopped directly and started again under a new context", func() {
			var runs int32
			job, err := export.NewJob("@every 1s", func(context.Context) ([]byte, error) {
				atomic.AddInt32(&runs, 1)
				return []byte(blob), nil
			}, w)
			So(err, ShouldBeNil)

			first, cancelFirst := context.WithCancel(context.Background())
			So(job.Start(first), ShouldBeNil)
			job.Stop()
			So(job.Running(), ShouldBeFalse)

			second, cancelSecond := context.WithCancel(context.Background())
			defer cancelSecond()
			So(job.Start(second), ShouldBeNil)
			defer job.Stop()

			cancelFirst()
			time.Sleep(50 * time.Millisecond)

			Convey("Then ending the first context leaves the second run scheduled", func() {
				So(job.Running(), ShouldBeTrue)
				deadline := time.Now().Add(5 * time.Second)
				for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
					time.Sleep(20 * time.Millisecond)
				}
				So(atomic.LoadInt32(&runs), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the start context ends", func() {
			job, err := export.NewJob("*/30 * * * *", func(context.Context) ([]byte, error) { return []byte(blob), nil }, w)
			So(err, ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			So(job.Start(ctx), ShouldBeNil)
			cancel()

			Convey("Then the job stops on its own", func() {
				deadline := time.Now().Add(2 * time.Second)
				for job.Running() && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(job.Running(), ShouldBeFalse)
				So(func() { job.Stop() }, ShouldNotPanic)
			})
		})
	})
}

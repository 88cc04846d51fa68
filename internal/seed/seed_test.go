package seed_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/okian/cadence/internal/adapters/storeclient"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
	"github.com/okian/cadence/internal/domain/validation"
	"github.com/okian/cadence/internal/seed"
	"github.com/okian/cadence/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCreator struct {
	mu       sync.Mutex
	payloads []model.CreatePayload
	calls    int64
	failEach int // every failEach-th call fails with a transport error
	inflight int64
	peak     int64
}

func (f *fakeCreator) Create(_ context.Context, p model.CreatePayload) (model.WireEvent, error) {
	n := atomic.AddInt64(&f.calls, 1)
	cur := atomic.AddInt64(&f.inflight, 1)
	defer atomic.AddInt64(&f.inflight, -1)
	for {
		peak := atomic.LoadInt64(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt64(&f.peak, peak, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	if f.failEach > 0 && n%int64(f.failEach) == 0 {
		return model.WireEvent{}, &storeclient.TransportError{Op: storeclient.OpCreate, Err: errors.New("connection reset")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return model.WireEvent{ID: model.FlexID(strconv.FormatInt(n, 10))}, nil
}

func TestGenerate(t *testing.T) {
	Convey("Given a generation window", t, func() {
		berlin, err := time.LoadLocation("Europe/Berlin")
		So(err, ShouldBeNil)
		now := time.Date(2025, 3, 28, 15, 0, 0, 0, berlin)

		Convey("When generating drafts", func() {
			drafts := seed.Generate(40, 7, now, berlin)

			Convey("Then every draft passes validation", func() {
				So(drafts, ShouldHaveLength, 40)
				for _, d := range drafts {
					res := validation.Validate(d, validation.WithLocation(berlin))
					So(res.Fields(), ShouldBeEmpty)
				}
			})

			Convey("Then every type is represented and interviews carry candidates", func() {
				seen := map[string]bool{}
				for _, d := range drafts {
					seen[d.Type] = true
					if d.Type == types.EventTypeInterview.String() {
						So(d.CandidateName, ShouldNotBeEmpty)
						So(d.CandidateEmail, ShouldContainSubstring, "@example.com")
					}
				}
				So(seen, ShouldHaveLength, len(types.AllEventTypes()))
			})

			Convey("Then drafts fall inside the window", func() {
				for _, d := range drafts {
					So(d.StartDate, ShouldBeGreaterThanOrEqualTo, "2025-03-29")
					So(d.StartDate, ShouldBeLessThanOrEqualTo, "2025-04-04")
				}
			})
		})

		Convey("When days is not positive", func() {
			drafts := seed.Generate(3, 0, now, nil)

			Convey("Then everything lands on the next day", func() {
				for _, d := range drafts {
					So(d.StartDate, ShouldEqual, "2025-03-29")
				}
			})
		})
	})
}

func TestRunWith(t *testing.T) {
	Convey("Given an initialized logger and a store", t, func() {
		So(logger.InitWithOptions(logger.WithWriter(&discard{})), ShouldBeNil)
		cfg := &seed.Config{NumEvents: 30, Workers: 4, Days: 5, Location: time.UTC}

		Convey("When every create succeeds", func() {
			store := &fakeCreator{}
			stats, err := seed.RunWith(context.Background(), store, cfg)

			Convey("Then all drafts are created within the worker bound", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 30)
				So(stats.Submitted, ShouldEqual, 30)
				So(stats.Created, ShouldEqual, 30)
				So(stats.Rejected+stats.Failed, ShouldEqual, 0)
				So(atomic.LoadInt64(&store.peak), ShouldBeLessThanOrEqualTo, 4)
				for _, p := range store.payloads {
					So(p.Status, ShouldEqual, types.EventStatusScheduled)
					So(p.Start, ShouldEndWith, "Z")
				}
			})
		})

		Convey("When some creates hit transport errors", func() {
			store := &fakeCreator{failEach: 3}
			stats, err := seed.RunWith(context.Background(), store, cfg)

			Convey("Then failures are counted separately", func() {
				So(err, ShouldBeNil)
				So(stats.Failed, ShouldEqual, 10)
				So(stats.Created, ShouldEqual, 20)
			})
		})

		Convey("When nothing can be created", func() {
			store := &fakeCreator{failEach: 1}
			_, err := seed.RunWith(context.Background(), store, cfg)

			Convey("Then ErrNothingCreated is returned", func() {
				So(errors.Is(err, seed.ErrNothingCreated), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			store := &fakeCreator{}
			stats, err := seed.RunWith(ctx, store, cfg)

			Convey("Then nothing is submitted", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(stats.Created, ShouldEqual, 0)
			})
		})
	})
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

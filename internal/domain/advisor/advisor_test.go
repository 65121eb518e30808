package advisor_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/fixturedensity/internal/domain/advisor"
	"github.com/okian/fixturedensity/internal/domain/memo"
	"github.com/okian/fixturedensity/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func fixtures(date string, n int, venue string) []model.Event {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	out := make([]model.Event, n)
	for i := range out {
		s := d.Add(15 * time.Hour)
		out[i] = model.Event{ID: date + venue, Start: s, End: s.Add(2 * time.Hour), Venue: venue, Kind: model.KindPoint}
	}
	return out
}

// week builds a window where each day is more congested than the last.
func week() []model.Event {
	var evs []model.Event
	evs = append(evs, fixtures("2026-03-03", 1, "york")...)
	evs = append(evs, fixtures("2026-03-04", 2, "ascot")...)
	evs = append(evs, fixtures("2026-03-05", 3, "ascot")...)
	evs = append(evs, fixtures("2026-03-06", 5, "kempton")...)
	return evs
}

type goExecutor struct{}

func (goExecutor) Submit(_ context.Context, task func()) error {
	go task()
	return nil
}

type rejectingExecutor struct{}

func (rejectingExecutor) Submit(context.Context, func()) error {
	return errors.New("queue full")
}

// heldExecutor parks tasks until released.
type heldExecutor struct {
	mu    sync.Mutex
	tasks []func()
}

func (h *heldExecutor) Submit(_ context.Context, task func()) error {
	h.mu.Lock()
	h.tasks = append(h.tasks, task)
	h.mu.Unlock()
	return nil
}

func (h *heldExecutor) release() {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()
	for _, t := range tasks {
		t()
	}
}

func TestAdvise_Dates(t *testing.T) {
	Convey("Given a five day window of rising congestion", t, func() {
		a := advisor.New()
		req := advisor.Request{Events: week(), Target: "2026-03-04", WindowDays: 5, Now: monday}

		Convey("When the middle day is the target", func() {
			res, err := a.Advise(context.Background(), req)

			Convey("Then candidates are sorted ascending by score", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, model.CandidateDate)
				keys := make([]string, len(res.Alternatives))
				scores := make([]int, len(res.Alternatives))
				for i, o := range res.Alternatives {
					keys[i] = o.Key
					scores[i] = o.Score
				}
				So(keys, ShouldResemble, []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"})
				So(scores, ShouldResemble, []int{0, 6, 24, 39, 66})
			})

			Convey("And the target ranks third at the 40th percentile", func() {
				So(res.Position.Rank, ShouldEqual, 3)
				So(res.Position.Percentile, ShouldEqual, 40)
				So(res.Position.Total, ShouldEqual, 5)
				So(res.Target.Percentile, ShouldEqual, 40)
				So(res.Target.PeakConcurrent, ShouldEqual, 1)
				So(res.Target.TimeOverlap, ShouldEqual, 2)
				So(res.Target.SpatialOverlap, ShouldEqual, 2)
			})

			Convey("And the position is taken over final scores", func() {
				lower := 0
				for _, o := range res.Alternatives {
					if o.Score < res.Target.FinalScore {
						lower++
					}
				}
				So(res.Position.Rank, ShouldEqual, 1+lower)
				So(res.Position.Percentile, ShouldEqual, int(math.Round(float64(lower)/float64(len(res.Alternatives))*100)))
				So(res.Alternatives[res.Position.Rank-1].Key, ShouldEqual, req.Target)
			})

			Convey("And the best alternative is the empty day", func() {
				So(res.Best.Key, ShouldEqual, "2026-03-02")
				So(res.Best.Delta, ShouldEqual, -24)
				So(res.TargetIsBest, ShouldBeFalse)
				So(res.Impact.Decision, ShouldNotBeEmpty)
			})
		})

		Convey("When the target lies outside the window", func() {
			req.Target = "2026-04-20"
			res, err := a.Advise(context.Background(), req)

			Convey("Then it is still evaluated", func() {
				So(err, ShouldBeNil)
				So(len(res.Alternatives), ShouldEqual, 6)
				So(res.Target.FinalScore, ShouldEqual, 0)
				So(res.Best.Key, ShouldEqual, "2026-03-02")
				So(res.Best.Delta, ShouldEqual, 0)
			})
		})

		Convey("When evaluated on a parallel executor", func() {
			seq, err := a.Advise(context.Background(), req)
			So(err, ShouldBeNil)
			par, err := advisor.New(advisor.WithExecutor(goExecutor{})).Advise(context.Background(), req)
			So(err, ShouldBeNil)

			Convey("Then the result matches the sequential sweep", func() {
				So(par.Alternatives, ShouldResemble, seq.Alternatives)
				So(par.Position, ShouldResemble, seq.Position)
			})
		})

		Convey("When the executor rejects tasks", func() {
			res, err := advisor.New(advisor.WithExecutor(rejectingExecutor{})).Advise(context.Background(), req)

			Convey("Then the tasks run inline", func() {
				So(err, ShouldBeNil)
				So(res.Evaluated, ShouldEqual, 5)
			})
		})

		Convey("When a cache is configured", func() {
			cached := advisor.New(advisor.WithCache(memo.NewInMemoryCache()))
			first, err := cached.Advise(context.Background(), req)
			So(err, ShouldBeNil)
			second, err := cached.Advise(context.Background(), req)
			So(err, ShouldBeNil)

			Convey("Then the second sweep is served from memory", func() {
				So(first.CacheHits, ShouldEqual, 0)
				So(second.CacheHits, ShouldEqual, second.Evaluated)
				So(second.Alternatives, ShouldResemble, first.Alternatives)
			})
		})

		Convey("When the target is empty", func() {
			req.Target = ""
			_, err := a.Advise(context.Background(), req)
			So(errors.Is(err, advisor.ErrUnknownCandidate), ShouldBeTrue)
		})
	})

	Convey("Given no events at all", t, func() {
		res, err := advisor.New().Advise(context.Background(), advisor.Request{Target: "2026-03-04", WindowDays: 3, Now: monday})

		Convey("Then every score is zero in the lowest band", func() {
			So(err, ShouldBeNil)
			So(res.Target.FinalScore, ShouldEqual, 0)
			So(res.Target.Band, ShouldEqual, "low")
			So(res.Position.Rank, ShouldEqual, 1)
			So(res.Position.Percentile, ShouldEqual, 0)
		})
	})
}

func TestAdvise_Venues(t *testing.T) {
	Convey("Given events at several venues", t, func() {
		events := append(week(), fixtures("2026-05-01", 2, "goodwood")...)
		req := advisor.Request{Events: events, Target: "york", WindowDays: 5, Now: monday}

		Convey("When a venue is the target", func() {
			res, err := advisor.New().Advise(context.Background(), req)

			Convey("Then only venues active in the window compete", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, model.CandidateVenue)
				So(len(res.Alternatives), ShouldEqual, 3)
				for _, o := range res.Alternatives {
					So(o.Key, ShouldNotEqual, "goodwood")
				}
			})

			Convey("And the quiet venue is best", func() {
				So(res.Best.Key, ShouldEqual, "york")
				So(res.TargetIsBest, ShouldBeTrue)
				So(res.Position.Rank, ShouldEqual, 1)
			})
		})
	})
}

func TestCandidates(t *testing.T) {
	Convey("Given the London zone", t, func() {
		london, err := time.LoadLocation("Europe/London")
		So(err, ShouldBeNil)

		Convey("Then date keys parse as dates and others as venues", func() {
			So(advisor.KindOf("2026-03-04", london), ShouldEqual, model.CandidateDate)
			So(advisor.KindOf("ascot", london), ShouldEqual, model.CandidateVenue)
		})

		Convey("When scoping a date", func() {
			late := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
			events := []model.Event{{ID: "late", Start: late, End: late.Add(2 * time.Hour)}}
			scope := advisor.Scope(model.Candidate{Kind: model.CandidateDate, Key: "2026-03-05"}, events, model.TimeWindow{}, london)

			Convey("Then events spilling past midnight belong to the next day too", func() {
				So(len(scope), ShouldEqual, 1)
			})
		})
	})
}

func TestTracker(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tr := advisor.NewTracker()

		Convey("When a second sweep begins for the same session", func() {
			first, doneFirst := tr.Begin(context.Background(), "map-panel")
			second, doneSecond := tr.Begin(context.Background(), "map-panel")
			defer doneSecond()

			Convey("Then the first is cancelled as superseded", func() {
				So(first.Err(), ShouldNotBeNil)
				So(errors.Is(context.Cause(first), advisor.ErrSuperseded), ShouldBeTrue)
				So(second.Err(), ShouldBeNil)
				So(tr.Superseded(), ShouldEqual, 1)
			})

			Convey("And finishing the stale sweep keeps the newer one registered", func() {
				doneFirst()
				So(tr.Active(), ShouldEqual, 1)
			})
		})

		Convey("When sessions differ", func() {
			a, doneA := tr.Begin(context.Background(), "a")
			_, doneB := tr.Begin(context.Background(), "b")
			defer doneA()
			defer doneB()

			Convey("Then neither is cancelled", func() {
				So(a.Err(), ShouldBeNil)
				So(tr.Active(), ShouldEqual, 2)
			})
		})

		Convey("When the session is empty", func() {
			a, doneA := tr.Begin(context.Background(), "")
			b, doneB := tr.Begin(context.Background(), "")
			defer doneA()
			defer doneB()

			Convey("Then nothing is tracked", func() {
				So(a.Err(), ShouldBeNil)
				So(b.Err(), ShouldBeNil)
				So(tr.Active(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a sweep in flight", t, func() {
		tr := advisor.NewTracker()
		held := &heldExecutor{}
		a := advisor.New(advisor.WithExecutor(held))
		req := advisor.Request{Events: week(), Target: "2026-03-04", WindowDays: 5, Now: monday}

		ctx, done := tr.Begin(context.Background(), "dashboard")
		errc := make(chan error, 1)
		go func() {
			defer done()
			_, err := a.Advise(ctx, req)
			errc <- err
		}()

		Convey("When a newer request arrives", func() {
			_, doneNew := tr.Begin(context.Background(), "dashboard")
			defer doneNew()
			err := <-errc
			held.release()

			Convey("Then the stale sweep reports supersession", func() {
				So(errors.Is(err, advisor.ErrSuperseded), ShouldBeTrue)
			})
		})
	})
}

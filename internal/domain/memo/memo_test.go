package memo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/fixturedensity/internal/domain/memo"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/overlap"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new cache", t, func() {
		c := memo.NewInMemoryCache(memo.WithMaxSize(3))

		Convey("When a key is missing", func() {
			_, ok := c.Get(ctx, 1)

			Convey("Then the lookup misses", func() {
				So(ok, ShouldBeFalse)
				So(c.Stats().Misses, ShouldEqual, 1)
			})
		})

		Convey("When features are stored", func() {
			f := overlap.Features{PeakConcurrent: 3, TimeOverlap: 4, SpatialOverlap: 2}
			c.Put(ctx, 7, f)
			got, ok := c.Get(ctx, 7)

			Convey("Then they are returned", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, f)
				So(c.Size(), ShouldEqual, 1)
				So(c.Stats().Hits, ShouldEqual, 1)
			})
		})

		Convey("When the same key is stored twice", func() {
			c.Put(ctx, 7, overlap.Features{PeakConcurrent: 1})
			c.Put(ctx, 7, overlap.Features{PeakConcurrent: 2})
			got, _ := c.Get(ctx, 7)

			Convey("Then the entry is replaced in place", func() {
				So(c.Size(), ShouldEqual, 1)
				So(got.PeakConcurrent, ShouldEqual, 2)
			})
		})

		Convey("When the cache is at capacity", func() {
			for k := uint64(1); k <= 4; k++ {
				c.Put(ctx, k, overlap.Features{PeakConcurrent: int(k)})
			}

			Convey("Then the oldest entry is evicted", func() {
				So(c.Size(), ShouldEqual, 3)
				_, ok := c.Get(ctx, 1)
				So(ok, ShouldBeFalse)
				for k := uint64(2); k <= 4; k++ {
					_, ok := c.Get(ctx, k)
					So(ok, ShouldBeTrue)
				}
				So(c.Stats().Evictions, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a disabled cache", t, func() {
		c := memo.NewInMemoryCache(memo.WithMaxSize(0))
		c.Put(ctx, 1, overlap.Features{PeakConcurrent: 1})

		Convey("Then nothing is stored", func() {
			_, ok := c.Get(ctx, 1)
			So(ok, ShouldBeFalse)
			So(c.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a cache with concurrent access", t, func() {
		c := memo.NewInMemoryCache(memo.WithMaxSize(50))

		Convey("When many goroutines read and write", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						k := uint64(id*1000 + i)
						c.Put(ctx, k, overlap.Features{TimeOverlap: i})
						c.Get(ctx, k)
					}
				}(g)
			}
			wg.Wait()

			Convey("Then the bound is respected", func() {
				So(c.Size(), ShouldEqual, 50)
			})
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given two identical event lists", t, func() {
		start := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
		loc := model.LatLng{Lat: 51.5, Lng: -0.1}
		events := func() []model.Event {
			return []model.Event{{ID: "a", Start: start, End: start.Add(time.Hour), Location: &loc}}
		}

		Convey("Then their hashes are equal", func() {
			So(memo.EventsHash(events()), ShouldEqual, memo.EventsHash(events()))
		})

		Convey("When one event moves", func() {
			moved := events()
			moved[0].Start = moved[0].Start.Add(time.Minute)

			Convey("Then the hash changes", func() {
				So(memo.EventsHash(moved), ShouldNotEqual, memo.EventsHash(events()))
			})
		})
	})

	Convey("Given key parts", t, func() {
		base := memo.KeyParts{EventsHash: 42, CandidateKey: "2026-03-07", Timezone: "UTC"}

		Convey("Then each part contributes to the key", func() {
			withBounds := base
			withBounds.Bounds = &model.Bounds{North: 1, South: 0, East: 1, West: 0}
			withAnchor := base
			withAnchor.Anchor = &model.LatLng{Lat: 1, Lng: 1}
			otherKey := base
			otherKey.CandidateKey = "2026-03-08"
			otherZone := base
			otherZone.Timezone = "Europe/London"

			k := memo.Key(base)
			So(memo.Key(base), ShouldEqual, k)
			So(memo.Key(withBounds), ShouldNotEqual, k)
			So(memo.Key(withAnchor), ShouldNotEqual, k)
			So(memo.Key(otherKey), ShouldNotEqual, k)
			So(memo.Key(otherZone), ShouldNotEqual, k)
		})

		Convey("Then absent bounds and anchor hash to zero", func() {
			So(memo.BoundsHash(nil), ShouldEqual, 0)
			So(memo.AnchorHash(nil), ShouldEqual, 0)
		})
	})
}

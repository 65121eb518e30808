package overlap_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/overlap"
	. "github.com/smartystreets/goconvey/convey"
)

var day = time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

func win(fromHour, fromMin, toHour, toMin int) model.TimeWindow {
	return model.TimeWindow{
		Start: day.Add(time.Duration(fromHour)*time.Hour + time.Duration(fromMin)*time.Minute),
		End:   day.Add(time.Duration(toHour)*time.Hour + time.Duration(toMin)*time.Minute),
	}
}

func ev(id string, w model.TimeWindow) model.Event {
	return model.Event{ID: id, Start: w.Start, End: w.End, Kind: model.KindSession}
}

func TestOverlaps(t *testing.T) {
	Convey("Given windows A[10-12) and B[11-13)", t, func() {
		a, b := win(10, 0, 12, 0), win(11, 0, 13, 0)

		Convey("Then they overlap in both directions", func() {
			So(overlap.Overlaps(a, b), ShouldBeTrue)
			So(overlap.Overlaps(b, a), ShouldBeTrue)
		})
	})

	Convey("Given touching windows C[10-11) and D[11-12)", t, func() {
		c, d := win(10, 0, 11, 0), win(11, 0, 12, 0)

		Convey("Then they do not overlap", func() {
			So(overlap.Overlaps(c, d), ShouldBeFalse)
			So(overlap.Overlaps(d, c), ShouldBeFalse)
		})
	})

	Convey("Given a window containing another", t, func() {
		outer, inner := win(9, 0, 18, 0), win(12, 0, 13, 0)

		Convey("Then containment counts as overlap", func() {
			So(overlap.Overlaps(outer, inner), ShouldBeTrue)
			So(overlap.Overlaps(inner, outer), ShouldBeTrue)
		})
	})
}

func TestConcurrency(t *testing.T) {
	Convey("Given a day of fixtures", t, func() {
		events := []model.Event{
			ev("a", win(10, 0, 12, 0)),
			ev("b", win(11, 0, 13, 0)),
			ev("e", win(11, 30, 13, 30)),
			ev("c", win(20, 0, 22, 0)),
			ev("d", win(16, 30, 18, 30)),
		}

		Convey("When no margin is applied", func() {
			d := overlap.New(overlap.WithMargin(0))

			Convey("Then only the morning cluster is concurrent", func() {
				So(d.Concurrency(events), ShouldResemble, []int{2, 2, 2, 0, 0})
				So(d.PeakConcurrent(events), ShouldEqual, 2)
				So(d.TimeOverlap(events), ShouldEqual, 3)
			})
		})

		Convey("When the default two hour margin is applied", func() {
			d := overlap.New()

			Convey("Then the evening pair becomes a clash", func() {
				So(d.Margin(), ShouldEqual, 2*time.Hour)
				counts := d.Concurrency(events)
				So(counts[3], ShouldEqual, 1)
				So(counts[4], ShouldEqual, 1)
				So(d.TimeOverlap(events), ShouldEqual, 5)
			})
		})

		Convey("When compared with a pairwise scan", func() {
			d := overlap.New(overlap.WithMargin(45 * time.Minute))
			counts := d.Concurrency(events)

			Convey("Then the sorted computation agrees", func() {
				for i, e := range events {
					want := 0
					for j, o := range events {
						if i != j && overlap.Overlaps(e.Window().Widen(45*time.Minute), o.Window()) {
							want++
						}
					}
					So(counts[i], ShouldEqual, want)
				}
			})
		})
	})

	Convey("Given identical zero-length events and no margin", t, func() {
		at := day.Add(15 * time.Hour)
		events := []model.Event{{ID: "x", Start: at, End: at}, {ID: "y", Start: at, End: at}}
		d := overlap.New(overlap.WithMargin(0))

		Convey("Then they are not concurrent", func() {
			So(d.PeakConcurrent(events), ShouldEqual, 0)
		})
	})

	Convey("Given no events", t, func() {
		d := overlap.New()

		Convey("Then every measure is zero", func() {
			f := d.Measure(nil, overlap.SpatialFilter{})
			So(f, ShouldResemble, overlap.Features{})
		})
	})
}

func TestSpatial(t *testing.T) {
	london := model.LatLng{Lat: 51.5074, Lng: -0.1278}
	paris := model.LatLng{Lat: 48.8566, Lng: 2.3522}
	wembley := model.LatLng{Lat: 51.5560, Lng: -0.2796}

	Convey("Haversine matches known distances", t, func() {
		So(math.Abs(overlap.Haversine(london, paris)-343.5), ShouldBeLessThan, 1.0)
		So(overlap.Haversine(london, london), ShouldEqual, 0)
	})

	Convey("Given located and unlocated events", t, func() {
		events := []model.Event{
			{ID: "wembley", Location: &wembley},
			{ID: "paris", Location: &paris},
			{ID: "nowhere"},
		}
		d := overlap.New()

		Convey("When no filter is supplied", func() {
			Convey("Then the whole set counts", func() {
				So(d.SpatialCount(events, overlap.SpatialFilter{}), ShouldEqual, 3)
			})
		})

		Convey("When an anchor is supplied without radius", func() {
			n := d.SpatialCount(events, overlap.SpatialFilter{Anchor: &london})

			Convey("Then the default 50 km radius applies", func() {
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When the radius reaches Paris", func() {
			n := d.SpatialCount(events, overlap.SpatialFilter{Anchor: &london, RadiusKm: 400})

			Convey("Then both located events match", func() {
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When bounds cover the south east of England", func() {
			b := model.Bounds{North: 52, South: 51, East: 1, West: -1}

			Convey("Then only Wembley matches", func() {
				So(d.SpatialCount(events, overlap.SpatialFilter{Bounds: &b}), ShouldEqual, 1)
			})

			Convey("And bounds plus a Paris anchor match nothing", func() {
				So(d.SpatialCount(events, overlap.SpatialFilter{Bounds: &b, Anchor: &paris}), ShouldEqual, 0)
			})
		})

		Convey("When filtering instead of counting", func() {
			kept := d.Filter(events, overlap.SpatialFilter{Anchor: &london, RadiusKm: 400})

			Convey("Then the matching events are returned in order", func() {
				So(len(kept), ShouldEqual, 2)
				So(kept[0].ID, ShouldEqual, "wembley")
				So(kept[1].ID, ShouldEqual, "paris")
				So(len(d.Filter(events, overlap.SpatialFilter{})), ShouldEqual, 3)
			})
		})
	})

	Convey("Given bounds crossing the antimeridian", t, func() {
		b := model.Bounds{North: 10, South: -30, East: -170, West: 170}

		Convey("Then both sides of the line are inside", func() {
			So(overlap.InBounds(model.LatLng{Lat: -18, Lng: 178}, b), ShouldBeTrue)
			So(overlap.InBounds(model.LatLng{Lat: -14, Lng: -172}, b), ShouldBeTrue)
			So(overlap.InBounds(model.LatLng{Lat: -14, Lng: 0}, b), ShouldBeFalse)
		})
	})
}

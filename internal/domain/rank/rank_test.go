package rank_test

import (
	"testing"

	"github.com/okian/fixturedensity/internal/domain/rank"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOf(t *testing.T) {
	Convey("Given five candidate scores", t, func() {
		others := []int{30, 45, 75, 90}

		Convey("When the target scores 60", func() {
			p := rank.Of(60, others)

			Convey("Then it ranks third at the 40th percentile", func() {
				So(p.Rank, ShouldEqual, 3)
				So(p.Percentile, ShouldEqual, 40)
				So(p.Total, ShouldEqual, 5)
			})
		})

		Convey("When the target's score decreases", func() {
			Convey("Then its rank number never increases", func() {
				prev := rank.Of(100, others)
				for score := 99; score >= 0; score-- {
					p := rank.Of(score, others)
					So(p.Rank, ShouldBeLessThanOrEqualTo, prev.Rank)
					So(p.Percentile, ShouldBeLessThanOrEqualTo, prev.Percentile)
					So(p.Rank, ShouldBeBetweenOrEqual, 1, p.Total)
					So(p.Percentile, ShouldBeBetweenOrEqual, 0, 100)
					prev = p
				}
			})
		})
	})

	Convey("Given ties with the target", t, func() {
		p := rank.Of(50, []int{50, 50, 10})

		Convey("Then only strictly lower scores count", func() {
			So(p.Rank, ShouldEqual, 2)
			So(p.Percentile, ShouldEqual, 25)
		})
	})

	Convey("Given no other candidates", t, func() {
		p := rank.Of(70, nil)

		Convey("Then the target is first at the zeroth percentile", func() {
			So(p.Rank, ShouldEqual, 1)
			So(p.Percentile, ShouldEqual, 0)
			So(p.Total, ShouldEqual, 1)
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given a comparison set", t, func() {
		ps := rank.All([]int{60, 30, 90})

		Convey("Then each entry is ranked against the rest", func() {
			So(ps[0].Rank, ShouldEqual, 2)
			So(ps[1].Rank, ShouldEqual, 1)
			So(ps[2].Rank, ShouldEqual, 3)
			So(ps[2].Percentile, ShouldEqual, 67)
		})
	})

	Convey("Given an empty set", t, func() {
		So(rank.All(nil), ShouldBeEmpty)
	})
}

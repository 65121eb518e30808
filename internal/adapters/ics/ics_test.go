package ics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/fixturedensity/internal/adapters/ics"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

const feed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//fixtures//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:match-1\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"DTSTART:20260307T150000Z\r\n" +
	"SUMMARY:Town v City\r\n" +
	"LOCATION:Riverside Stadium\r\n" +
	"CATEGORIES:football,league\r\n" +
	"GEO:51.5;-0.12\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:meeting-1\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"DTSTART:20260310T120000Z\r\n" +
	"DTEND:20260312T180000Z\r\n" +
	"SUMMARY:Spring Festival\r\n" +
	"X-SPORT:racing\r\n" +
	"X-REGION:South East\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:allday-1\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20260314\r\n" +
	"SUMMARY:Open day\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecode(t *testing.T) {
	Convey("Given a fixture feed", t, func() {
		raws, err := ics.Decode(strings.NewReader(feed), time.UTC)

		Convey("Then every VEVENT becomes a raw record", func() {
			So(err, ShouldBeNil)
			So(len(raws), ShouldEqual, 3)
		})

		Convey("Then an event without an end is a point event", func() {
			r := raws[0]
			So(r["id"], ShouldEqual, "match-1")
			So(r["kind"], ShouldEqual, string(model.KindPoint))
			So(r["venue"], ShouldEqual, "Riverside Stadium")
			So(r["sport"], ShouldEqual, "football")
			So(r["lat"], ShouldEqual, 51.5)
			So(r["lng"], ShouldEqual, -0.12)
		})

		Convey("Then an event with DTEND is a session", func() {
			r := raws[1]
			So(r["kind"], ShouldEqual, string(model.KindSession))
			So(r["sport"], ShouldEqual, "racing")
			So(r["region"], ShouldEqual, "South East")
			So(r["sessionEnd"], ShouldEqual, "2026-03-12T18:00:00Z")
		})

		Convey("When the records are normalized", func() {
			events, skipped := normalize.New().NormalizeAll(raws)

			Convey("Then durations follow the sport table and explicit ends", func() {
				So(skipped, ShouldBeEmpty)
				So(events[0].End.Sub(events[0].Start), ShouldEqual, 150*time.Minute)
				So(events[0].Location, ShouldNotBeNil)
				So(events[1].End.Sub(events[1].Start), ShouldEqual, 54*time.Hour)
				So(events[2].End.Sub(events[2].Start), ShouldEqual, 24*time.Hour)
			})
		})
	})

	Convey("Given a feed where one session has an unparsable DTEND", t, func() {
		badEnd := "BEGIN:VCALENDAR\r\n" +
			"VERSION:2.0\r\n" +
			"PRODID:-//fixtures//EN\r\n" +
			"BEGIN:VEVENT\r\n" +
			"UID:good\r\n" +
			"DTSTAMP:20260301T000000Z\r\n" +
			"DTSTART:20260307T150000Z\r\n" +
			"DTEND:20260307T170000Z\r\n" +
			"END:VEVENT\r\n" +
			"BEGIN:VEVENT\r\n" +
			"UID:bad\r\n" +
			"DTSTAMP:20260301T000000Z\r\n" +
			"DTSTART:20260308T150000Z\r\n" +
			"DTEND:notadate\r\n" +
			"END:VEVENT\r\n" +
			"END:VCALENDAR\r\n"
		raws, err := ics.Decode(strings.NewReader(badEnd), time.UTC)

		Convey("Then both records are decoded", func() {
			So(err, ShouldBeNil)
			So(len(raws), ShouldEqual, 2)
			So(raws[1]["kind"], ShouldEqual, string(model.KindSession))
			So(raws[1]["sessionEnd"], ShouldEqual, "notadate")
		})

		Convey("When the records are normalized", func() {
			events, skipped := normalize.New().NormalizeAll(raws)

			Convey("Then only the bad session is skipped", func() {
				So(len(events), ShouldEqual, 1)
				So(events[0].ID, ShouldEqual, "good")
				So(len(skipped), ShouldEqual, 1)
				So(errors.Is(skipped[0], normalize.ErrInvalidEvent), ShouldBeTrue)
				So(skipped[0].Error(), ShouldContainSubstring, `"bad"`)
			})
		})
	})

	Convey("Given a malformed stream", t, func() {
		_, err := ics.Decode(strings.NewReader("BEGIN:VCALENDAR\r\nthis line has no colon\r\nEND:VCALENDAR\r\n"), time.UTC)

		Convey("Then a decode error is returned", func() {
			So(errors.Is(err, ics.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given an empty stream", t, func() {
		raws, err := ics.Decode(strings.NewReader(""), time.UTC)
		So(err, ShouldBeNil)
		So(raws, ShouldBeEmpty)
	})
}

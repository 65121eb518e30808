package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/fixturedensity/internal/adapters/http/api"
	service "github.com/okian/fixturedensity/internal/app"
	"github.com/okian/fixturedensity/internal/domain/advisor"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/types"
	"github.com/okian/fixturedensity/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

// mockDeps returns err from every call and records the last request.
type mockDeps struct {
	err  error
	last types.ScoreRequest
}

func (m *mockDeps) Score(_ context.Context, req types.ScoreRequest) (types.ScoreResponse, error) {
	m.last = req
	return types.ScoreResponse{Risk: types.RiskResult{Key: req.TargetKey}}, m.err
}

func (m *mockDeps) Alternatives(_ context.Context, req types.ScoreRequest) (types.AlternativesResponse, error) {
	m.last = req
	return types.AlternativesResponse{TargetKey: req.TargetKey}, m.err
}

func (m *mockDeps) Congestion(_ context.Context, req types.ScoreRequest) (types.CongestionResponse, error) {
	m.last = req
	return types.CongestionResponse{}, m.err
}

func (m *mockDeps) OverlapIndex(_ context.Context, req types.ScoreRequest) (types.OverlapResponse, error) {
	m.last = req
	return types.OverlapResponse{}, m.err
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "requests": 3}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}).Register(context.Background(), mux)
	return mux
}

func post(mux http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_ErrorMapping(t *testing.T) {
	Convey("Given a server whose dependencies fail", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When the body is not JSON", func() {
			w := post(mux, "/v1/score", "{nope")

			Convey("Then it responds 400 bad_request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var e map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e["code"], ShouldEqual, "bad_request")
				So(e["message"], ShouldContainSubstring, "api.score")
			})
		})

		Convey("When the sweep was superseded", func() {
			deps.err = advisor.ErrSuperseded
			w := post(mux, "/v1/score", `{"targetKey":"2026-03-04"}`)

			Convey("Then it responds 409 superseded", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(w.Body.String(), ShouldContainSubstring, "superseded")
			})
		})

		Convey("When the request is invalid", func() {
			deps.err = types.ErrInvalidRequest
			w := post(mux, "/v1/alternatives", `{}`)

			Convey("Then it responds 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.err = errors.New("boom")
			w := post(mux, "/v1/congestion", `{}`)

			Convey("Then it responds 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "internal")
			})
		})

		Convey("When a scoring route is called with GET", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/score", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestServer_QueryOverrides(t *testing.T) {
	Convey("Given a server with recording dependencies", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When group_by is passed as a query parameter", func() {
			w := post(mux, "/v1/congestion?group_by=region", `{"groupBy":"venue"}`)

			Convey("Then the query wins", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last.GroupBy, ShouldEqual, "region")
			})
		})

		Convey("When granularity is passed as a query parameter", func() {
			w := post(mux, "/v1/overlap-index?granularity=weekday", ``)

			Convey("Then an empty body is accepted and the query applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last.Granularity, ShouldEqual, "weekday")
			})
		})
	})
}

func TestServer_RequestID(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("When the caller sends no request id", func() {
			w := post(mux, "/v1/score", `{"targetKey":"ascot"}`)

			Convey("Then a UUID is assigned and echoed in header and body", func() {
				id := w.Header().Get(api.RequestIDHeader)
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)
				var resp types.ScoreResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.RequestID, ShouldEqual, id)
				So(resp.Risk.Key, ShouldEqual, "ascot")
			})
		})

		Convey("When the caller sends its own id", func() {
			id := uuid.NewString()
			req := httptest.NewRequest(http.MethodPost, "/v1/alternatives", strings.NewReader(`{"targetKey":"ascot"}`))
			req.Header.Set(api.RequestIDHeader, id)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is propagated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, id)
			})
		})
	})
}

func TestServer_StatsAndHealth(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("When requesting stats", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the provider's map is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When requesting health after a scoring call", func() {
			_ = post(mux, "/v1/score", `{"targetKey":"ascot"}`)
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then Prometheus metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
			})
		})
	})
}

func TestServer_EndToEnd(t *testing.T) {
	Convey("Given a server backed by the real service", t, func() {
		svc := service.New()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)

		events := []model.RawEvent{
			{"id": "a", "date": "2026-03-04T15:00:00Z", "venue": "ascot"},
			{"id": "b", "date": "2026-03-04T16:00:00Z", "venue": "ascot"},
			{"id": "c", "date": "2026-03-05T15:00:00Z", "venue": "york"},
			{"id": "bad", "date": "tomorrow-ish"},
		}
		body, err := json.Marshal(types.ScoreRequest{
			Events:             events,
			TargetKey:          "2026-03-04",
			DecisionWindowDays: 3,
			Now:                "2026-03-03T09:00:00Z",
		})
		So(err, ShouldBeNil)

		Convey("When scoring a date", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/score", bytes.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the response carries risk, impact and ranked alternatives", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp types.ScoreResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Risk.Key, ShouldEqual, "2026-03-04")
				So(resp.Risk.PeakConcurrent, ShouldEqual, 1)
				So(resp.SkippedEvents, ShouldEqual, 1)
				So(len(resp.Alternatives), ShouldEqual, 3)
				So(resp.Best.Key, ShouldEqual, "2026-03-03")
				So(resp.Impact.RecommendedActions, ShouldNotBeNil)
				So(resp.Rank.Total, ShouldEqual, 3)
			})
		})

		Convey("When the raw JSON uses camelCase contract names", func() {
			w := post(mux, "/v1/congestion", string(body))

			Convey("Then the report uses them too", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"congestionScore"`)
				So(w.Body.String(), ShouldContainSubstring, `"avgPerDay":2`)
			})
		})
	})
}

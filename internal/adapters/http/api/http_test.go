package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/shotline/internal/adapters/http/api"
	"github.com/okian/shotline/internal/adapters/repository"
	service "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	submitStatus service.SubmitStatus
	submitErr    error
	submitted    []model.Job

	evaluation  types.Evaluation
	evaluateOK  bool
	evaluateErr error

	records    map[int64]model.ShotAccuracy
	metricsErr error

	summary       types.Summary
	summaryErr    error
	minConfidence float64
	minSample     int

	backfill    types.BackfillResult
	backfillErr error
	runs        map[string]types.BackfillResult
}

func (m *mockDependencies) Submit(_ context.Context, job model.Job) (service.SubmitStatus, error) {
	if m.submitErr != nil {
		return service.Accepted, m.submitErr
	}
	m.submitted = append(m.submitted, job)
	return m.submitStatus, nil
}

func (m *mockDependencies) Evaluate(_ context.Context, _ model.Job) (types.Evaluation, bool, error) {
	return m.evaluation, m.evaluateOK, m.evaluateErr
}

func (m *mockDependencies) Metrics(_ context.Context, id int64) (model.ShotAccuracy, error) {
	if m.metricsErr != nil {
		return model.ShotAccuracy{}, m.metricsErr
	}
	rec, ok := m.records[id]
	if !ok {
		return model.ShotAccuracy{}, repository.ErrNotFound
	}
	return rec, nil
}

func (m *mockDependencies) Summary(_ context.Context, minConfidence float64, minSample int) (types.Summary, error) {
	m.minConfidence = minConfidence
	m.minSample = minSample
	return m.summary, m.summaryErr
}

func (m *mockDependencies) StartBackfill(_ context.Context) (types.BackfillResult, error) {
	return m.backfill, m.backfillErr
}

func (m *mockDependencies) BackfillRun(runID string) (types.BackfillResult, bool) {
	res, ok := m.runs[runID]
	return res, ok
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

const validShot = `{
	"shot": {"id": 7, "end_id": 1, "number": 1, "color": "red", "type": "Draw", "percent_score": 100},
	"pre": [],
	"post": [{"color": "red", "x": 0.1, "y": 0.2}]
}`

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 3).
		Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "shotline_")
		})

		Convey("Then the stats endpoint returns JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/shots", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/evaluate", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/metrics/1", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/summary", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/backfill", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestShotsHandler(t *testing.T) {
	Convey("Given the shots endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid shot is posted", func() {
			w := do(mux, http.MethodPost, "/shots", validShot)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(w.Body.String(), ShouldContainSubstring, `"shot_id":7`)
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].Shot.Side, ShouldEqual, model.SideRed)
				So(deps.submitted[0].Post, ShouldResemble, []model.Position{{Side: model.SideRed, X: 0.1, Y: 0.2}})
			})
		})

		Convey("When the shot was already submitted", func() {
			deps.submitStatus = service.Duplicate
			w := do(mux, http.MethodPost, "/shots", validShot)

			Convey("Then it is acknowledged as a duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/shots", "{nope")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the body has unknown fields", func() {
			w := do(mux, http.MethodPost, "/shots", `{"shot": {"id": 1}, "extra": true}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects the job", func() {
			deps.submitErr = service.ErrInvalidJob
			w := do(mux, http.MethodPost, "/shots", validShot)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrBackpressure
			w := do(mux, http.MethodPost, "/shots", validShot)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(w)["code"], ShouldEqual, "backpressure")
		})

		Convey("When the service is not running", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/shots", validShot)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the service fails unexpectedly", func() {
			deps.submitErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/shots", validShot)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestEvaluateHandler(t *testing.T) {
	Convey("Given the evaluate endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the shot can be evaluated", func() {
			deps.evaluateOK = true
			deps.evaluation = types.Evaluation{
				Target:  model.InferredTarget{Point: model.Point{X: 0.1, Y: 0.2}, Confidence: 0.8},
				Final:   model.Point{X: 0.1, Y: 0.2},
				Metrics: model.AccuracyMetrics{DistanceCategory: model.DistanceOnTarget, ErrorMagnitude: model.MagnitudeMinor},
			}
			w := do(mux, http.MethodPost, "/evaluate", validShot)

			Convey("Then the evaluation is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Evaluation
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldResemble, deps.evaluation)
			})
		})

		Convey("When no thrown stone is found", func() {
			w := do(mux, http.MethodPost, "/evaluate", validShot)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Body.Len(), ShouldEqual, 0)
		})

		Convey("When the job is invalid", func() {
			deps.evaluateErr = service.ErrInvalidJob
			w := do(mux, http.MethodPost, "/evaluate", validShot)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMetricsHandler(t *testing.T) {
	Convey("Given the metrics endpoint with one stored record", t, func() {
		deps := &mockDependencies{records: map[int64]model.ShotAccuracy{
			42: {ShotID: 42, ShotType: model.ShotFreeze, Side: model.SideYellow},
		}}
		mux := newMux(deps)

		Convey("Then a stored shot is returned", func() {
			w := do(mux, http.MethodGet, "/metrics/42", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"shot_id":42`)
			So(w.Body.String(), ShouldContainSubstring, `"shot_type":"Freeze"`)
		})

		Convey("Then an unknown shot is not found", func() {
			w := do(mux, http.MethodGet, "/metrics/43", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Then malformed IDs are rejected", func() {
			for _, path := range []string{"/metrics/", "/metrics/abc", "/metrics/0", "/metrics/-1", "/metrics/1/2"} {
				So(do(mux, http.MethodGet, path, "").Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Then store failures are internal errors", func() {
			deps.metricsErr = errors.New("disk on fire")
			So(do(mux, http.MethodGet, "/metrics/42", "").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestSummaryHandler(t *testing.T) {
	Convey("Given the summary endpoint", t, func() {
		deps := &mockDependencies{summary: types.Summary{Total: 5, Considered: 4}}
		mux := newMux(deps)

		Convey("When no parameters are given", func() {
			w := do(mux, http.MethodGet, "/summary", "")

			Convey("Then the server defaults apply", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.minConfidence, ShouldEqual, 0)
				So(deps.minSample, ShouldEqual, 3)
				So(w.Body.String(), ShouldContainSubstring, `"considered":4`)
			})
		})

		Convey("When parameters are given", func() {
			w := do(mux, http.MethodGet, "/summary?min_confidence=0.5&min_sample=10", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.minConfidence, ShouldEqual, 0.5)
			So(deps.minSample, ShouldEqual, 10)
		})

		Convey("When parameters are out of range", func() {
			for _, q := range []string{"min_confidence=1.5", "min_confidence=x", "min_sample=0", "min_sample=two"} {
				So(do(mux, http.MethodGet, "/summary?"+q, "").Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestBackfillHandler(t *testing.T) {
	Convey("Given the backfill endpoint", t, func() {
		deps := &mockDependencies{
			backfill: types.BackfillResult{RunID: "run-1", State: types.BackfillRunning, Shots: 3},
			runs: map[string]types.BackfillResult{
				"run-1": {RunID: "run-1", State: types.BackfillDone, Shots: 3, Submitted: 2, Duplicates: 1},
			},
		}
		mux := newMux(deps)

		Convey("When a backfill is started", func() {
			w := do(mux, http.MethodPost, "/backfill", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"run_id":"run-1"`)
			So(w.Body.String(), ShouldContainSubstring, `"state":"running"`)
		})

		Convey("When a known run is looked up", func() {
			w := do(mux, http.MethodGet, "/backfill/run-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"state":"done"`)
			So(w.Body.String(), ShouldContainSubstring, `"submitted":2`)
		})

		Convey("When an unknown run is looked up", func() {
			So(do(mux, http.MethodGet, "/backfill/run-2", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/backfill/", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/backfill/run-1", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When no shot source is configured", func() {
			deps.backfillErr = service.ErrNoShotSource
			w := do(mux, http.MethodPost, "/backfill", "")
			So(w.Code, ShouldEqual, http.StatusNotImplemented)
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given a wrapped API error", t, func() {
		cause := errors.New("bad json")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then it matches both the kind and the cause", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: bad json")
		})

		Convey("And a bare kind carries no cause", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})
	})
}

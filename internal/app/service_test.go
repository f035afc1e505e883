package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/shotline/internal/adapters/repository"
	service "github.com/okian/shotline/internal/app"
	"github.com/okian/shotline/internal/domain/accuracy"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// drawJob is a red draw whose new stone stops at final.
func drawJob(id int64, final model.Point) model.Job {
	return model.Job{
		Shot: model.ShotRecord{ID: id, EndID: 1, Number: 1, Side: model.SideRed, Type: model.ShotDraw, PercentScore: 100},
		Pre:  []model.Position{},
		Post: []model.Position{{Side: model.SideRed, X: final.X, Y: final.Y}},
	}
}

// eventually polls cond until it holds or the timeout elapses.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should not be started", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["queueSize"], ShouldEqual, 10_000)
			So(stats["dedupeSize"], ShouldEqual, 100_000)
		})

		Convey("Then submissions are refused until Start", func() {
			_, err := svc.Submit(context.Background(), drawJob(1, model.Point{}))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.StartBackfill(context.Background())
			So(errors.Is(err, service.ErrNoShotSource), ShouldBeTrue)

			_, err = svc.Metrics(context.Background(), 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
		)

		Convey("Then the options are reflected in its stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 25)
			So(stats["shotSource"], ShouldEqual, false)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
		})

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And stopping again is safe", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				svc.Stop()
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a draw is submitted", func() {
			status, err := svc.Submit(ctx, drawJob(10, model.Point{X: 0.1, Y: 0}))
			So(err, ShouldBeNil)
			So(status, ShouldEqual, service.Accepted)

			Convey("Then its metrics are stored", func() {
				So(eventually(func() bool {
					_, err := svc.Metrics(ctx, 10)
					return err == nil
				}), ShouldBeTrue)

				rec, err := svc.Metrics(ctx, 10)
				So(err, ShouldBeNil)
				So(rec.Final, ShouldResemble, model.Point{X: 0.1, Y: 0})
				So(rec.Target.Confidence, ShouldEqual, 0.8)
				So(rec.DistanceCategory, ShouldEqual, model.DistanceOnTarget)
				So(rec.OutcomeSuccess, ShouldBeTrue)
			})

			Convey("And submitting it again is reported as a duplicate", func() {
				status, err := svc.Submit(ctx, drawJob(10, model.Point{X: 0.1, Y: 0}))
				So(err, ShouldBeNil)
				So(status, ShouldEqual, service.Duplicate)
			})
		})

		Convey("When a job is invalid", func() {
			cases := []model.Job{
				drawJob(0, model.Point{}),
				{Shot: model.ShotRecord{ID: 1, Side: "green"}},
				{
					Shot: model.ShotRecord{ID: 2, Side: model.SideRed},
					Post: []model.Position{{Side: model.SideRed, X: math.NaN()}},
				},
				{
					Shot: model.ShotRecord{ID: 3, Side: model.SideRed},
					Pre:  []model.Position{{Side: "blue"}},
				},
				{Shot: model.ShotRecord{ID: 4, Side: model.SideRed, PercentScore: 120}},
				{Shot: model.ShotRecord{ID: 5, Side: model.SideRed, PercentScore: -25}},
				{Shot: model.ShotRecord{ID: 6, Side: model.SideRed, PercentScore: math.NaN()}},
				{Shot: model.ShotRecord{ID: 7, Side: model.SideRed, PercentScore: math.Inf(1)}},
			}

			Convey("Then it is rejected with ErrInvalidJob", func() {
				for _, job := range cases {
					_, err := svc.Submit(ctx, job)
					So(errors.Is(err, service.ErrInvalidJob), ShouldBeTrue)
				}
			})
		})

		Convey("When a shot has no thrown stone", func() {
			job := drawJob(20, model.Point{})
			job.Post = nil
			_, err := svc.Submit(ctx, job)
			So(err, ShouldBeNil)

			Convey("Then it is processed but nothing is stored", func() {
				So(eventually(func() bool {
					return svc.GetStats()["skipped"].(int64) >= 1
				}), ShouldBeTrue)
				_, err := svc.Metrics(ctx, 20)
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a stopped service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		svc.Stop()

		Convey("Then Submit reports ErrNotStarted", func() {
			_, err := svc.Submit(context.Background(), drawJob(1, model.Point{}))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a service with custom thresholds", t, func() {
		th := accuracy.DefaultThresholds()
		th.DistanceModerate = 2.5
		svc := service.New(service.WithThresholds(th))
		ctx := context.Background()

		Convey("When evaluating a draw that overshoots the house", func() {
			ev, ok, err := svc.Evaluate(ctx, drawJob(1, model.Point{X: 0, Y: 2}))

			Convey("Then the button is the target and the custom bound applies", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(ev.Target.Point, ShouldResemble, model.Button)
				So(ev.Final, ShouldResemble, model.Point{X: 0, Y: 2})
				So(ev.Metrics.DistanceError, ShouldAlmostEqual, 2.0, 1e-9)
				So(ev.Metrics.DistanceCategory, ShouldEqual, model.DistanceModerate)
			})
		})

		Convey("When no thrown stone can be found", func() {
			job := drawJob(2, model.Point{})
			job.Post = []model.Position{{Side: model.SideYellow, X: 1, Y: 1}}
			_, ok, err := svc.Evaluate(ctx, job)

			Convey("Then the result is absent without an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the job is invalid", func() {
			_, _, err := svc.Evaluate(ctx, drawJob(-1, model.Point{}))
			So(errors.Is(err, service.ErrInvalidJob), ShouldBeTrue)
		})
	})
}

func TestService_Summary(t *testing.T) {
	Convey("Given a service with analyzed draws", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		for i, x := range []float64{0.1, 0.3, 2.0} {
			_, err := svc.Submit(ctx, drawJob(int64(i+1), model.Point{X: x, Y: 0}))
			So(err, ShouldBeNil)
		}
		So(eventually(func() bool {
			return svc.GetStats()["storedMetrics"] == 3
		}), ShouldBeTrue)

		Convey("Then the summary covers every record", func() {
			sum, err := svc.Summary(ctx, 0, 1)
			So(err, ShouldBeNil)
			So(sum.Total, ShouldEqual, 3)
			So(sum.Considered, ShouldEqual, 3)
			So(sum.ByShotType, ShouldHaveLength, 1)
			So(sum.ByShotType[0].ShotType, ShouldEqual, model.ShotDraw)
			So(sum.ByShotType[0].Count, ShouldEqual, 3)
		})

		Convey("Then a confidence floor above every record empties the reports", func() {
			sum, err := svc.Summary(ctx, 0.99, 1)
			So(err, ShouldBeNil)
			So(sum.Total, ShouldEqual, 3)
			So(sum.Considered, ShouldEqual, 0)
			So(sum.ByShotType, ShouldBeEmpty)
		})
	})
}

func TestService_BackfillWithoutSource(t *testing.T) {
	Convey("Backfill without a shot source reports ErrNoShotSource", t, func() {
		svc := service.New()
		_, err := svc.Backfill(context.Background())
		So(errors.Is(err, service.ErrNoShotSource), ShouldBeTrue)

		_, ok := svc.BackfillRun("missing")
		So(ok, ShouldBeFalse)
	})
}

// slowStore saves like a database would: slowly, and never once its
// context is done.
type slowStore struct {
	*repository.MemoryStore
	delay time.Duration
}

func (s *slowStore) Save(ctx context.Context, rec model.ShotAccuracy) error {
	time.Sleep(s.delay)
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, rec)
}

func TestService_StopAfterStartContextEnds(t *testing.T) {
	Convey("Given a service started with a context that is later cancelled", t, func() {
		store := &slowStore{MemoryStore: repository.NewMemoryStore(context.Background()), delay: 20 * time.Millisecond}
		Reset(func() { _ = store.Close() })

		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(64),
			service.WithStore(store),
		)
		ctx, cancel := context.WithCancel(context.Background())
		So(svc.Start(ctx), ShouldBeNil)

		const n = 50
		for i := int64(1); i <= n; i++ {
			status, err := svc.Submit(ctx, drawJob(i, model.Point{X: 0.1, Y: 0}))
			So(err, ShouldBeNil)
			So(status, ShouldEqual, service.Accepted)
		}

		Convey("When the context ends before Stop", func() {
			cancel()
			svc.Stop()

			Convey("Then every accepted job is stored", func() {
				count, err := store.Count(context.Background())
				So(err, ShouldBeNil)
				So(count, ShouldEqual, n)

				rec, err := store.Get(context.Background(), n)
				So(err, ShouldBeNil)
				So(rec.ShotID, ShouldEqual, int64(n))
			})
		})
	})
}

package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/shotline/internal/adapters/repository"
	"github.com/okian/shotline/internal/adapters/storage/sqlite"
	"github.com/okian/shotline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shotline.db")
	s, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, path
}

func accuracyRecord(id int64) model.ShotAccuracy {
	return model.ShotAccuracy{
		ShotID:         id,
		ShotType:       model.ShotGuard,
		Side:           model.SideYellow,
		PlayerName:     "Lead",
		Final:          model.Point{X: 0.123456789, Y: 3.9},
		Target:         model.InferredTarget{Point: model.Point{X: 0, Y: 3.5}, Confidence: 0.7},
		OutcomeSuccess: true,
		PartialSuccess: 0.88,
		AccuracyMetrics: model.AccuracyMetrics{
			DistanceError:     0.41851,
			DirectionError:    1.7654321,
			DistanceCategory:  model.DistanceModerate,
			DirectionCategory: model.DirectionSlight,
			ErrorMagnitude:    model.MagnitudeModerate,
		},
	}
}

func TestStoreMetrics(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh SQLite store", t, func() {
		s, path := openStore(t)
		Reset(func() { _ = s.Close() })

		Convey("Then it starts empty", func() {
			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)

			list, err := s.List(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)

			_, err = s.Get(ctx, 42)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a record is saved", func() {
			rec := accuracyRecord(7)
			So(s.Save(ctx, rec), ShouldBeNil)

			Convey("Then it reads back unchanged", func() {
				got, err := s.Get(ctx, 7)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, rec)
			})

			Convey("And saving it again replaces the row", func() {
				rec.DistanceError = 0.05
				rec.DistanceCategory = model.DistanceOnTarget
				rec.OutcomeSuccess = false
				So(s.Save(ctx, rec), ShouldBeNil)

				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				got, err := s.Get(ctx, 7)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, rec)
			})

			Convey("And it survives reopening the database", func() {
				So(s.Close(), ShouldBeNil)
				reopened, err := sqlite.Open(ctx, path)
				So(err, ShouldBeNil)
				defer func() { _ = reopened.Close() }()

				got, err := reopened.Get(ctx, 7)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, rec)
			})
		})

		Convey("When records are saved out of order", func() {
			for _, id := range []int64{30, 10, 20} {
				So(s.Save(ctx, accuracyRecord(id)), ShouldBeNil)
			}

			Convey("Then List orders them by shot ID", func() {
				list, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
				So(list[0].ShotID, ShouldEqual, 10)
				So(list[1].ShotID, ShouldEqual, 20)
				So(list[2].ShotID, ShouldEqual, 30)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			Convey("Then every operation reports ErrStoreClosed", func() {
				So(errors.Is(s.Save(ctx, accuracyRecord(1)), repository.ErrStoreClosed), ShouldBeTrue)
				_, err := s.Get(ctx, 1)
				So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
				_, err = s.List(ctx)
				So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
				_, err = s.Count(ctx)
				So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
				_, err = s.Shots(ctx)
				So(errors.Is(err, repository.ErrStoreClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Open rejects an empty path", t, func() {
		_, err := sqlite.Open(ctx, "  ")
		So(err, ShouldNotBeNil)
	})
}

func TestStoreShotSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given an end with three recorded shots", t, func() {
		s, _ := openStore(t)
		Reset(func() { _ = s.Close() })

		shots := []model.ShotRecord{
			{ID: 12, EndID: 1, Number: 2, Side: model.SideYellow, Type: model.ShotGuard, PlayerName: "B", PercentScore: 50},
			{ID: 11, EndID: 1, Number: 1, Side: model.SideRed, Type: model.ShotDraw, PlayerName: "A", PercentScore: 100},
			{ID: 13, EndID: 1, Number: 3, Side: model.SideRed, Type: model.ShotTakeOut, PercentScore: 75},
			{ID: 21, EndID: 2, Number: 1, Side: model.SideYellow, Type: model.ShotDraw, PercentScore: 25},
		}
		for _, sh := range shots {
			So(s.SaveShot(ctx, sh), ShouldBeNil)
		}

		after1 := []model.Position{{Side: model.SideRed, X: 0.1, Y: 0.2}}
		after2 := []model.Position{{Side: model.SideRed, X: 0.1, Y: 0.2}, {Side: model.SideYellow, X: -0.4, Y: 4.0}}
		after3 := []model.Position{{Side: model.SideRed, X: 0.3, Y: 0.1}}
		So(s.SavePositions(ctx, 11, after1), ShouldBeNil)
		So(s.SavePositions(ctx, 12, after2), ShouldBeNil)
		So(s.SavePositions(ctx, 13, after3), ShouldBeNil)

		Convey("Then Shots orders by end then number", func() {
			got, err := s.Shots(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 4)
			So(got[0].ID, ShouldEqual, 11)
			So(got[1].ID, ShouldEqual, 12)
			So(got[2].ID, ShouldEqual, 13)
			So(got[3].ID, ShouldEqual, 21)
			So(got[0], ShouldResemble, shots[1])
		})

		Convey("Then the first shot has an empty pre snapshot", func() {
			pre, post, err := s.Snapshots(ctx, shots[1])
			So(err, ShouldBeNil)
			So(pre, ShouldNotBeNil)
			So(pre, ShouldBeEmpty)
			So(post, ShouldResemble, after1)
		})

		Convey("Then a later shot sees the previous shot's positions as pre", func() {
			pre, post, err := s.Snapshots(ctx, shots[2])
			So(err, ShouldBeNil)
			So(pre, ShouldResemble, after2)
			So(post, ShouldResemble, after3)
		})

		Convey("Then a shot without recorded positions has an empty post", func() {
			pre, post, err := s.Snapshots(ctx, shots[3])
			So(err, ShouldBeNil)
			So(pre, ShouldBeEmpty)
			So(post, ShouldBeEmpty)
		})

		Convey("When positions are saved again", func() {
			replacement := []model.Position{{Side: model.SideYellow, X: 1, Y: 1}}
			So(s.SavePositions(ctx, 12, replacement), ShouldBeNil)

			Convey("Then they replace the earlier set", func() {
				_, post, err := s.Snapshots(ctx, shots[0])
				So(err, ShouldBeNil)
				So(post, ShouldResemble, replacement)
			})
		})

		Convey("Then positions for an unknown shot are rejected", func() {
			err := s.SavePositions(ctx, 999, after1)
			So(err, ShouldNotBeNil)
		})
	})
}

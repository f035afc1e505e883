package inference_test

import (
	"testing"

	"github.com/okian/shotline/internal/domain/inference"
	"github.com/okian/shotline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func red(x, y float64) model.Position    { return model.Position{Side: model.SideRed, X: x, Y: y} }
func yellow(x, y float64) model.Position { return model.Position{Side: model.SideYellow, X: x, Y: y} }

func shot(side model.Side, typ model.ShotType) model.ShotRecord {
	return model.ShotRecord{ID: 1, EndID: 1, Number: 2, Side: side, Type: typ, PercentScore: 75}
}

func at(x, y, confidence float64) model.InferredTarget {
	return model.InferredTarget{Point: model.Point{X: x, Y: y}, Confidence: confidence}
}

func TestEngine_Draw(t *testing.T) {
	Convey("Given a draw by red", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideRed, model.ShotDraw)
		pre := []model.Position{yellow(0.5, 0.5)}

		Convey("When the stone rests in the house", func() {
			post := []model.Position{yellow(0.5, 0.5), red(0.4, -1.0)}
			So(e.Infer(s, pre, post), ShouldResemble, at(0.4, -1.0, 0.8))
		})

		Convey("When the stone rests exactly on the house edge", func() {
			post := []model.Position{yellow(0.5, 0.5), red(inference.HouseRadius, 0)}
			So(e.Infer(s, pre, post), ShouldResemble, at(inference.HouseRadius, 0, 0.8))
		})

		Convey("When the stone overshoots the house", func() {
			post := []model.Position{yellow(0.5, 0.5), red(0, -2.5)}
			So(e.Infer(s, pre, post), ShouldResemble, at(0, 0, 0.6))
		})

		Convey("When no thrown stone can be found", func() {
			So(e.Infer(s, pre, pre), ShouldResemble, at(0, 0, 0.2))
		})
	})
}

func TestEngine_Guard(t *testing.T) {
	Convey("Given a guard by yellow", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideYellow, model.ShotGuard)

		Convey("When the stone stops inside the corridor", func() {
			post := []model.Position{yellow(0.2, 4.0)}
			So(e.Infer(s, nil, post), ShouldResemble, at(0.2, 4.0, 0.8))
		})

		Convey("When the stone stops on the corridor bounds", func() {
			So(e.Infer(s, nil, []model.Position{yellow(0, 1.5)}), ShouldResemble, at(0, 1.5, 0.8))
			So(e.Infer(s, nil, []model.Position{yellow(0, 6.0)}), ShouldResemble, at(0, 6.0, 0.8))
		})

		Convey("When the stone stops outside the corridor", func() {
			post := []model.Position{yellow(0.2, 0.5)}
			So(e.Infer(s, nil, post), ShouldResemble, at(0, 3.5, 0.5))
		})

		Convey("When no thrown stone can be found", func() {
			So(e.Infer(s, nil, nil), ShouldResemble, at(0, 3.5, 0.3))
		})
	})
}

func TestEngine_TakeOut(t *testing.T) {
	Convey("Given a take-out by yellow", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideYellow, model.ShotTakeOut)

		Convey("When a red stone is removed", func() {
			pre := []model.Position{red(0, 0)}
			post := []model.Position{yellow(0.3, 0.1)}

			Convey("Then the removed stone is the target", func() {
				So(e.Infer(s, pre, post), ShouldResemble, at(0, 0, 0.9))
			})
		})

		Convey("When two stones are removed", func() {
			pre := []model.Position{red(1, 1), red(0, 0)}
			post := []model.Position{yellow(0.3, 0.1)}

			Convey("Then the first removed stone wins", func() {
				So(e.Infer(s, pre, post), ShouldResemble, at(1, 1, 0.9))
			})
		})

		Convey("When the shot misses", func() {
			pre := []model.Position{red(1, 1), red(0.5, 0.2), yellow(0.4, 0.1)}
			post := []model.Position{red(1, 1), red(0.5, 0.2), yellow(0.4, 0.1), yellow(0.6, 0.3)}

			Convey("Then the nearest opponent stone is the target", func() {
				So(e.Infer(s, pre, post), ShouldResemble, at(0.5, 0.2, 0.7))
			})
		})

		Convey("When two opponent stones are equally near", func() {
			pre := []model.Position{red(1, 0), red(-1, 0)}
			post := []model.Position{red(1, 0), red(-1, 0), yellow(0, 0)}

			Convey("Then the earlier one wins", func() {
				So(e.Infer(s, pre, post), ShouldResemble, at(1, 0, 0.7))
			})
		})

		Convey("When the shot misses an empty house", func() {
			post := []model.Position{yellow(0.2, 0.2)}
			So(e.Infer(s, nil, post), ShouldResemble, at(0, 0, 0.3))
		})

		Convey("When nothing changes", func() {
			pre := []model.Position{red(1, 1)}
			So(e.Infer(s, pre, pre), ShouldResemble, at(0, 0, 0.3))
		})
	})

	Convey("Given taps and peels", t, func() {
		e := inference.NewEngine()
		pre := []model.Position{red(0.1, 2.0)}
		post := []model.Position{yellow(0.9, 0.1)}

		Convey("Then they infer exactly like a take-out", func() {
			want := e.Infer(shot(model.SideYellow, model.ShotTakeOut), pre, post)
			So(e.Infer(shot(model.SideYellow, model.ShotTap), pre, post), ShouldResemble, want)
			So(e.Infer(shot(model.SideYellow, model.ShotPeel), pre, post), ShouldResemble, want)
			So(want, ShouldResemble, at(0.1, 2.0, 0.9))
		})
	})
}

func TestEngine_HitAndRoll(t *testing.T) {
	Convey("Given a hit and roll by red", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideRed, model.ShotHitAndRoll)

		Convey("When the thrown stone is found", func() {
			post := []model.Position{red(-0.3, 0.9)}
			So(e.Infer(s, nil, post), ShouldResemble, at(-0.3, 0.9, 0.7))
		})

		Convey("When no thrown stone is found", func() {
			So(e.Infer(s, nil, nil), ShouldResemble, at(0, 0, 0.4))
		})
	})
}

func TestEngine_Freeze(t *testing.T) {
	Convey("Given a freeze by red", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideRed, model.ShotFreeze)

		Convey("When the stone stops against another", func() {
			pre := []model.Position{yellow(0, 0.5), yellow(2, 2)}
			post := []model.Position{yellow(0, 0.5), yellow(2, 2), red(0, 0.8)}

			Convey("Then the target is the midpoint of the pair", func() {
				got := e.Infer(s, pre, post)
				So(got.X, ShouldAlmostEqual, 0, 1e-12)
				So(got.Y, ShouldAlmostEqual, 0.65, 1e-12)
				So(got.Confidence, ShouldEqual, 0.8)
			})
		})

		Convey("When the stone is alone", func() {
			post := []model.Position{red(0, 0.8)}
			So(e.Infer(s, nil, post), ShouldResemble, at(0, 0, 0.4))
		})

		Convey("When no thrown stone is found", func() {
			So(e.Infer(s, nil, nil), ShouldResemble, at(0, 0, 0.4))
		})
	})
}

func TestEngine_Unknown(t *testing.T) {
	Convey("Given an unrecognized shot type", t, func() {
		e := inference.NewEngine()
		s := shot(model.SideRed, "Raise")
		post := []model.Position{red(0.5, 0.5)}

		Convey("Then the button is the target at low confidence", func() {
			So(e.Infer(s, nil, post), ShouldResemble, at(0, 0, 0.3))
		})
	})
}

func TestEngine_Options(t *testing.T) {
	Convey("Given an engine with a smaller house", t, func() {
		e := inference.NewEngine(inference.WithHouseRadius(1.0))
		post := []model.Position{red(0, 1.5)}

		Convey("Then a draw outside it targets the button", func() {
			So(e.Infer(shot(model.SideRed, model.ShotDraw), nil, post), ShouldResemble, at(0, 0, 0.6))
		})
	})

	Convey("Given invalid overrides", t, func() {
		e := inference.NewEngine(
			inference.WithHouseRadius(-1),
			inference.WithGuardZone(5, 1, model.Point{X: 9, Y: 9}),
		)

		Convey("Then the standard geometry stays in place", func() {
			So(e.Infer(shot(model.SideRed, model.ShotDraw), nil, []model.Position{red(0, 1.5)}), ShouldResemble, at(0, 1.5, 0.8))
			So(e.Infer(shot(model.SideRed, model.ShotGuard), nil, nil), ShouldResemble, at(0, 3.5, 0.3))
		})
	})
}

func TestEngine_ConfidenceRange(t *testing.T) {
	Convey("Given every shot type against assorted snapshots", t, func() {
		e := inference.NewEngine()
		snaps := [][2][]model.Position{
			{nil, nil},
			{nil, {red(0.1, 0.1)}},
			{{yellow(0, 0)}, {red(0.1, 0.1)}},
			{{yellow(0, 0)}, {yellow(0, 0), red(3, 8)}},
		}
		types := append([]model.ShotType{"?"}, model.ShotTypes...)

		Convey("Then confidence always lies in [0,1]", func() {
			for _, typ := range types {
				for _, sn := range snaps {
					got := e.Infer(shot(model.SideRed, typ), sn[0], sn[1])
					So(got.Confidence, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			}
		})
	})
}

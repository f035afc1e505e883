package inference

import (
	"math"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/snapshot"
)

func (e *Engine) draw(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	thrown, ok := snapshot.FindThrown(shot.Side, pre, post)
	if !ok {
		return target(model.Button, confDrawNoStone)
	}
	final := thrown.Point()
	if final.DistanceTo(model.Button) <= e.houseRadius {
		return target(final, confDrawInHouse)
	}
	// Overshot the house; the button was the likely aim.
	return target(model.Button, confDrawOutOfHouse)
}

func (e *Engine) guard(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	thrown, ok := snapshot.FindThrown(shot.Side, pre, post)
	if !ok {
		return target(e.guardTarget, confGuardNoStone)
	}
	if thrown.Y >= e.guardMinY && thrown.Y <= e.guardMaxY {
		return target(thrown.Point(), confGuardInZone)
	}
	return target(e.guardTarget, confGuardOutOfZone)
}

// takeOut also serves taps and peels.
func (e *Engine) takeOut(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	if removed := snapshot.FindRemoved(pre, post); len(removed) > 0 {
		return target(removed[0].Point(), confTakeOutRemoved)
	}

	// Missed: assume the opponent stone closest to where ours stopped.
	thrown, ok := snapshot.FindThrown(shot.Side, pre, post)
	if ok {
		opponent := shot.Side.Opponent()
		if p, found := nearest(thrown.Point(), pre, func(s model.Position) bool {
			return s.Side == opponent
		}); found {
			return target(p, confTakeOutNearMiss)
		}
	}
	return target(model.Button, confTakeOutDefault)
}

func (e *Engine) hitAndRoll(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	thrown, ok := snapshot.FindThrown(shot.Side, pre, post)
	if !ok {
		return target(model.Button, confHitAndRollNone)
	}
	return target(thrown.Point(), confHitAndRoll)
}

func (e *Engine) freeze(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	thrown, ok := snapshot.FindThrown(shot.Side, pre, post)
	if !ok {
		return target(model.Button, confFreezeNone)
	}
	final := thrown.Point()
	// Any stone sharing the thrown stone's spot is the thrown stone itself.
	other, found := nearest(final, post, func(s model.Position) bool {
		return s.Point() != final
	})
	if !found {
		return target(model.Button, confFreezeNone)
	}
	return target(final.Midpoint(other), confFreeze)
}

// nearest returns the point of the candidate closest to from. Ties keep the
// earliest candidate.
func nearest(from model.Point, stones []model.Position, keep func(model.Position) bool) (model.Point, bool) {
	best := math.Inf(1)
	var out model.Point
	found := false
	for _, s := range stones {
		if !keep(s) {
			continue
		}
		if d := from.DistanceTo(s.Point()); d < best {
			best, out, found = d, s.Point(), true
		}
	}
	return out, found
}

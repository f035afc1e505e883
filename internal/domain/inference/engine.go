// Package inference guesses the intended target of a shot from the stone
// positions observed before and after it.
package inference

import (
	"github.com/okian/shotline/internal/domain/model"
)

// Geometry constants, in meters from the button.
const (
	// HouseRadius is the radius of the scoring zone.
	HouseRadius = 1.829
	// GuardZoneMinY and GuardZoneMaxY bound the guard corridor.
	GuardZoneMinY = 1.5
	GuardZoneMaxY = 6.0
)

// DefaultGuardTarget is the centre-line guard assumed when a guard shot
// gives no better evidence.
var DefaultGuardTarget = model.Point{X: 0, Y: 3.5}

// Confidence levels attached to each heuristic outcome.
const (
	confDrawInHouse     = 0.8
	confDrawOutOfHouse  = 0.6
	confDrawNoStone     = 0.2
	confGuardInZone     = 0.8
	confGuardOutOfZone  = 0.5
	confGuardNoStone    = 0.3
	confTakeOutRemoved  = 0.9
	confTakeOutNearMiss = 0.7
	confTakeOutDefault  = 0.3
	confHitAndRoll      = 0.7
	confHitAndRollNone  = 0.4
	confFreeze          = 0.8
	confFreezeNone      = 0.4
	confUnknown         = 0.3
)

// Inferer infers a target for one shot. Implementations never fail: every
// shot type, known or not, resolves to some target.
type Inferer interface {
	Infer(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget
}

// Engine is the stock Inferer. It is stateless after construction and safe
// for concurrent use.
type Engine struct {
	houseRadius float64
	guardMinY   float64
	guardMaxY   float64
	guardTarget model.Point
}

// NewEngine creates an engine with the standard sheet geometry.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		houseRadius: HouseRadius,
		guardMinY:   GuardZoneMinY,
		guardMaxY:   GuardZoneMaxY,
		guardTarget: DefaultGuardTarget,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Infer dispatches on the shot type. Unknown types fall back to the button.
func (e *Engine) Infer(shot model.ShotRecord, pre, post []model.Position) model.InferredTarget {
	switch shot.Type {
	case model.ShotDraw:
		return e.draw(shot, pre, post)
	case model.ShotGuard:
		return e.guard(shot, pre, post)
	case model.ShotTakeOut, model.ShotTap, model.ShotPeel:
		return e.takeOut(shot, pre, post)
	case model.ShotHitAndRoll:
		return e.hitAndRoll(shot, pre, post)
	case model.ShotFreeze:
		return e.freeze(shot, pre, post)
	default:
		return target(model.Button, confUnknown)
	}
}

func target(p model.Point, confidence float64) model.InferredTarget {
	return model.InferredTarget{Point: p, Confidence: confidence}
}

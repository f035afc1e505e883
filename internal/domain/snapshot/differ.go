// Package snapshot compares stone positions observed before and after a shot.
//
// Positions are matched by exact coordinate equality. The store echoes the
// inserted float64 values at full precision, so no tolerance is applied.
package snapshot

import (
	"fmt"

	"github.com/okian/shotline/internal/domain/model"
)

// FindThrown returns the stone the acting side added during the shot.
// It reports false when the side has no more stones after the shot than
// before it, or when every post-shot stone of that side matches a pre-shot
// coordinate. If several stones qualify, the first in post order wins.
func FindThrown(side model.Side, pre, post []model.Position) (model.Position, bool) {
	candidates := NewPositions(side, pre, post)
	if len(candidates) == 0 {
		return model.Position{}, false
	}
	return candidates[0], true
}

// NewPositions returns every post-shot stone of side whose coordinates do
// not appear among the pre-shot stones of the same side, in post order.
// It returns nil unless the side's stone count grew.
func NewPositions(side model.Side, pre, post []model.Position) []model.Position {
	if count(side, post) <= count(side, pre) {
		return nil
	}

	seen := make(map[model.Point]struct{}, len(pre))
	for _, p := range pre {
		if p.Side == side {
			seen[p.Point()] = struct{}{}
		}
	}

	var out []model.Position
	for _, p := range post {
		if p.Side != side {
			continue
		}
		if _, ok := seen[p.Point()]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// FindThrownStrict is FindThrown with the ambiguous case surfaced: it fails
// with ErrAmbiguousThrow when more than one new stone qualifies and with
// ErrNoThrownObject when none does.
func FindThrownStrict(side model.Side, pre, post []model.Position) (model.Position, error) {
	candidates := NewPositions(side, pre, post)
	switch len(candidates) {
	case 0:
		return model.Position{}, ErrNoThrownObject
	case 1:
		return candidates[0], nil
	default:
		return model.Position{}, fmt.Errorf("%w: %d candidates for %s", ErrAmbiguousThrow, len(candidates), side)
	}
}

// FindRemoved returns the pre-shot stones whose (side, x, y) is absent after
// the shot, in pre order. The side takes part in the match so that a removed
// opponent stone is never confused with a same-color stone at that spot.
func FindRemoved(pre, post []model.Position) []model.Position {
	if len(pre) == 0 {
		return []model.Position{}
	}

	after := make(map[model.Position]struct{}, len(post))
	for _, p := range post {
		after[p] = struct{}{}
	}

	removed := make([]model.Position, 0, len(pre))
	for _, p := range pre {
		if _, ok := after[p]; !ok {
			removed = append(removed, p)
		}
	}
	return removed
}

func count(side model.Side, positions []model.Position) int {
	n := 0
	for _, p := range positions {
		if p.Side == side {
			n++
		}
	}
	return n
}

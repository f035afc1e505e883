// Package analysis aggregates stored accuracy records into reports.
//
// Every report takes a minimum inference confidence; records below it are
// left out so that defaulted targets do not dilute the statistics.
package analysis

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/internal/domain/types"
)

// Filter returns the records whose target confidence is at least
// minConfidence, preserving order.
func Filter(records []model.ShotAccuracy, minConfidence float64) []model.ShotAccuracy {
	out := make([]model.ShotAccuracy, 0, len(records))
	for _, r := range records {
		if r.Target.Confidence >= minConfidence {
			out = append(out, r)
		}
	}
	return out
}

// ByShotType reports per shot type statistics for groups of at least
// minSample records, ordered by mean distance error.
func ByShotType(records []model.ShotAccuracy, minConfidence float64, minSample int) []types.ShotTypeSummary {
	groups, order := group(Filter(records, minConfidence), func(r model.ShotAccuracy) model.ShotType {
		return r.ShotType
	})

	out := make([]types.ShotTypeSummary, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g) < minSample {
			continue
		}
		dist, dir := errorSeries(g)
		meanDist, stdDist := meanStd(dist)
		meanDir, stdDir := meanStd(dir)
		out = append(out, types.ShotTypeSummary{
			ShotType:           k,
			Count:              len(g),
			MeanDistanceError:  meanDist,
			StdDistanceError:   stdDist,
			MeanDirectionError: meanDir,
			StdDirectionError:  stdDir,
			MeanPartialSuccess: stat.Mean(partials(g), nil),
		})
	}
	slices.SortStableFunc(out, func(a, b types.ShotTypeSummary) int {
		return cmp.Compare(a.MeanDistanceError, b.MeanDistanceError)
	})
	return out
}

type pairKey struct {
	distance  model.DistanceCategory
	direction model.DirectionCategory
}

// ErrorPatterns counts each (distance, direction) category pair, most
// frequent first. Equal frequencies keep category order.
func ErrorPatterns(records []model.ShotAccuracy, minConfidence float64) []types.ErrorPattern {
	kept := Filter(records, minConfidence)
	groups, order := group(kept, func(r model.ShotAccuracy) pairKey {
		return pairKey{distance: r.DistanceCategory, direction: r.DirectionCategory}
	})

	out := make([]types.ErrorPattern, 0, len(order))
	for _, k := range order {
		g := groups[k]
		dist, dir := errorSeries(g)
		out = append(out, types.ErrorPattern{
			DistanceCategory:   k.distance,
			DirectionCategory:  k.direction,
			Frequency:          len(g),
			Percentage:         100 * float64(len(g)) / float64(len(kept)),
			MeanDistanceError:  stat.Mean(dist, nil),
			MeanDirectionError: stat.Mean(dir, nil),
		})
	}
	slices.SortStableFunc(out, func(a, b types.ErrorPattern) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DistanceCategory.Rank(), b.DistanceCategory.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.DirectionCategory.Rank(), b.DirectionCategory.Rank())
	})
	return out
}

// ByMagnitude reports count and mean errors per error magnitude, ordered
// by mean distance error.
func ByMagnitude(records []model.ShotAccuracy, minConfidence float64) []types.MagnitudeSummary {
	groups, order := group(Filter(records, minConfidence), func(r model.ShotAccuracy) model.ErrorMagnitude {
		return r.ErrorMagnitude
	})

	out := make([]types.MagnitudeSummary, 0, len(order))
	for _, k := range order {
		g := groups[k]
		dist, dir := errorSeries(g)
		out = append(out, types.MagnitudeSummary{
			ErrorMagnitude:     k,
			Count:              len(g),
			MeanDistanceError:  stat.Mean(dist, nil),
			MeanDirectionError: stat.Mean(dir, nil),
		})
	}
	slices.SortStableFunc(out, func(a, b types.MagnitudeSummary) int {
		return cmp.Compare(a.MeanDistanceError, b.MeanDistanceError)
	})
	return out
}

// ByPlayer reports per player accuracy for groups of at least minSample
// records, ordered by mean distance error. Records without a player name
// are skipped.
func ByPlayer(records []model.ShotAccuracy, minConfidence float64, minSample int) []types.PlayerSummary {
	named := make([]model.ShotAccuracy, 0, len(records))
	for _, r := range Filter(records, minConfidence) {
		if r.PlayerName != "" {
			named = append(named, r)
		}
	}
	groups, order := group(named, func(r model.ShotAccuracy) string { return r.PlayerName })

	out := make([]types.PlayerSummary, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g) < minSample {
			continue
		}
		dist, dir := errorSeries(g)
		made := 0
		for _, r := range g {
			if r.OutcomeSuccess {
				made++
			}
		}
		out = append(out, types.PlayerSummary{
			PlayerName:         k,
			Count:              len(g),
			MeanDistanceError:  stat.Mean(dist, nil),
			MeanDirectionError: stat.Mean(dir, nil),
			SuccessRate:        float64(made) / float64(len(g)),
		})
	}
	slices.SortStableFunc(out, func(a, b types.PlayerSummary) int {
		if c := cmp.Compare(a.MeanDistanceError, b.MeanDistanceError); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerName, b.PlayerName)
	})
	return out
}

// Summarize builds every report over the same record set.
func Summarize(records []model.ShotAccuracy, minConfidence float64, minSample int) types.Summary {
	return types.Summary{
		Total:       len(records),
		Considered:  len(Filter(records, minConfidence)),
		ByShotType:  ByShotType(records, minConfidence, minSample),
		Patterns:    ErrorPatterns(records, minConfidence),
		ByMagnitude: ByMagnitude(records, minConfidence),
		ByPlayer:    ByPlayer(records, minConfidence, minSample),
	}
}

// group buckets records by key and returns the keys in first-seen order.
func group[K comparable](records []model.ShotAccuracy, key func(model.ShotAccuracy) K) (map[K][]model.ShotAccuracy, []K) {
	groups := make(map[K][]model.ShotAccuracy)
	var order []K
	for _, r := range records {
		k := key(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	return groups, order
}

func errorSeries(records []model.ShotAccuracy) (distance, direction []float64) {
	distance = make([]float64, len(records))
	direction = make([]float64, len(records))
	for i, r := range records {
		distance[i] = r.DistanceError
		direction[i] = r.DirectionError
	}
	return distance, direction
}

func partials(records []model.ShotAccuracy) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.PartialSuccess
	}
	return out
}

// meanStd returns the mean and sample standard deviation. A single value
// has zero spread.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

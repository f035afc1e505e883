package shotgen

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/okian/shotline/internal/domain/inference"
	"github.com/okian/shotline/internal/domain/model"
	"github.com/okian/shotline/pkg/logger"
)

var positions = []string{"lead", "second", "third", "skip"}

// Generate simulates cfg.NumShots throws, sixteen per end, and returns one
// job per throw. Every throw leaves the thrown stone in play so each job
// yields an accuracy record. The same seed always yields the same jobs.
func Generate(ctx context.Context, cfg *Config, stats *Stats) []model.Job {
	logger.Get().Info(ctx, "generating shots", logger.Int("numShots", cfg.NumShots), logger.Int64("seed", int64(cfg.Seed)))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	jobs := make([]model.Job, 0, cfg.NumShots)
	var board []model.Position

	for i := 0; i < cfg.NumShots; i++ {
		number := i%shotsPerEnd + 1
		if number == 1 {
			board = nil
		}
		side := model.SideRed
		if number%2 == 0 {
			side = model.SideYellow
		}
		shot := model.ShotRecord{
			ID:           cfg.FirstID + int64(i),
			EndID:        int64(i/shotsPerEnd) + 1,
			Number:       number,
			Side:         side,
			PlayerName:   playerName(side, number),
			PercentScore: float64(rng.IntN(scoreSteps+1)) * percentMultiplier / scoreSteps,
		}

		pre := append([]model.Position{}, board...)
		shot.Type, board = throw(rng, side, board)
		jobs = append(jobs, model.Job{Shot: shot, Pre: pre, Post: append([]model.Position{}, board...)})
	}

	stats.ShotsGenerated = len(jobs)
	logger.Get().Info(ctx, "generated shots successfully", logger.Int("count", len(jobs)))
	return jobs
}

// throw picks a shot type for the current board and returns the board
// after the throw.
func throw(rng *rand.Rand, side model.Side, board []model.Position) (model.ShotType, []model.Position) {
	var opponents []int
	for i, p := range board {
		if p.Side != side {
			opponents = append(opponents, i)
		}
	}

	roll := rng.Float64()
	switch {
	case len(opponents) > 0 && roll < takeOutChance:
		victim := opponents[rng.IntN(len(opponents))]
		hit := board[victim]
		next := make([]model.Position, 0, len(board))
		next = append(next, board[:victim]...)
		next = append(next, board[victim+1:]...)
		stop := jitter(rng, model.Point{X: hit.X, Y: hit.Y}, rollOffMax)
		return model.ShotTakeOut, place(next, side, stop)
	case roll < takeOutChance+guardChance:
		p := model.Point{
			X: (rng.Float64()*2 - 1) * guardMaxX,
			Y: guardMinY + rng.Float64()*(guardMaxY-guardMinY),
		}
		return model.ShotGuard, place(board, side, p)
	default:
		return model.ShotDraw, place(board, side, jitter(rng, model.Button, inference.HouseRadius*overshootFactor))
	}
}

// place adds a stone for side at p, nudging it off any occupied spot so the
// new stone is always distinguishable from the ones already in play.
func place(board []model.Position, side model.Side, p model.Point) []model.Position {
	for occupied(board, p) {
		p.X = math.Nextafter(p.X, math.Inf(1))
	}
	return append(board, model.Position{Side: side, X: p.X, Y: p.Y})
}

func occupied(board []model.Position, p model.Point) bool {
	for _, s := range board {
		if s.X == p.X && s.Y == p.Y {
			return true
		}
	}
	return false
}

// jitter returns a point uniformly distributed in the disc of radius r
// around c.
func jitter(rng *rand.Rand, c model.Point, r float64) model.Point {
	rho := r * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()
	return model.Point{X: c.X + rho*math.Cos(theta), Y: c.Y + rho*math.Sin(theta)}
}

// playerName follows the usual throwing order: each of the four players
// throws two consecutive stones for their team.
func playerName(side model.Side, number int) string {
	team := (number - 1) / 2
	return string(side) + "-" + positions[(team/stonesPerPlayer)%playersPerTeam]
}

// expectedTargets runs the local inference engine over jobs so results read
// back from the service can be checked against it.
func expectedTargets(jobs []model.Job) map[int64]model.InferredTarget {
	engine := inference.NewEngine()
	out := make(map[int64]model.InferredTarget, len(jobs))
	for _, j := range jobs {
		out[j.Shot.ID] = engine.Infer(j.Shot, j.Pre, j.Post)
	}
	return out
}

func shotLabel(id int64) string {
	return "shot " + strconv.FormatInt(id, 10)
}

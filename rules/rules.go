// Package rules holds move planning on top of the game engine: which
// headings are safe from a given world, and a simple autopilot that
// steers toward the reward.
package rules

import (
	"github.com/brensch/snekworld/game"
)

// SafeDirections returns the headings the snake can take on the next Step
// without losing, in game.Directions order.
func SafeDirections(w *game.World) []game.Direction {
	if status, ok := w.GameStatus(); ok && status.Terminal() {
		return nil
	}

	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if isSafe(w, d) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(w *game.World, d game.Direction) bool {
	cells := w.SnakeCells()

	// 1. Neck check (the engine refuses these changes anyway)
	if len(cells) > 1 && d == w.Direction().Opposite() {
		return false
	}

	// 2. Body collision; the tail moves away unless we eat this turn.
	next := w.Neighbour(cells[0], d)
	if !w.Occupied(next) {
		return true
	}
	reward, hasReward := w.RewardCell()
	growing := hasReward && next == reward
	return !growing && next == cells[len(cells)-1]
}

// Autopilot picks the safe heading that gets closest to the reward on the
// wrapping board. With no safe heading it keeps the current one.
func Autopilot(w *game.World) game.Direction {
	safe := SafeDirections(w)
	if len(safe) == 0 {
		return w.Direction()
	}

	reward, ok := w.RewardCell()
	if !ok {
		return safe[0]
	}

	best := safe[0]
	bestDist := -1
	for _, d := range safe {
		dist := Distance(w, w.Neighbour(w.SnakeHead(), d), reward)
		// Prefer moves that keep an exit open after arriving.
		if exits(w, w.Neighbour(w.SnakeHead(), d)) == 0 {
			dist += w.Size()
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// Distance is the Manhattan distance between two cells when moves wrap at
// the edges.
func Distance(w *game.World, a, b int) int {
	ar, ac := w.IndexToCell(a)
	br, bc := w.IndexToCell(b)
	return wrapDelta(ar, br, w.Width()) + wrapDelta(ac, bc, w.Width())
}

func wrapDelta(a, b, n int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if n-d < d {
		return n - d
	}
	return d
}

// exits counts free neighbours of cell, ignoring the current tail.
func exits(w *game.World, cell int) int {
	cells := w.SnakeCells()
	tail := cells[len(cells)-1]
	n := 0
	for _, d := range game.Directions {
		next := w.Neighbour(cell, d)
		if !w.Occupied(next) || next == tail {
			n++
		}
	}
	return n
}

// Play drives w with the autopilot until it ends or maxTurns steps have been
// taken. It starts the game if needed and calls onStep after every step.
func Play(w *game.World, maxTurns int, onStep func(*game.World)) (game.Status, error) {
	if _, ok := w.GameStatus(); !ok {
		if err := w.StartGame(); err != nil {
			return 0, err
		}
	}
	for i := 0; maxTurns <= 0 || i < maxTurns; i++ {
		status, _ := w.GameStatus()
		if status.Terminal() {
			return status, nil
		}
		w.ChangeSnakeDirection(Autopilot(w))
		if err := w.Step(); err != nil {
			return status, err
		}
		if onStep != nil {
			onStep(w)
		}
	}
	status, _ := w.GameStatus()
	return status, nil
}

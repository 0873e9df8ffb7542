// Package game is the snake simulation engine.
//
// A World owns a square board addressed by row-major cell index, the
// snake body, its heading, the reward cell, the score and the game status.
// Front ends read snapshots from it and forward intents (start, direction
// changes); the caller decides how often to Step.
package game

import (
	"errors"
	"fmt"
)

// MinWidth is the smallest board a World accepts.
const MinWidth = 3

const noReward = -1

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrNotPlaying      = errors.New("game is not being played")
)

// Option configures a World at construction.
type Option func(*World)

// WithRand sets the source used for reward placement.
func WithRand(src IndexSource) Option {
	return func(w *World) {
		if src != nil {
			w.rng = src
		}
	}
}

// WithSeed makes reward placement reproducible.
func WithSeed(seed int64) Option {
	return func(w *World) { w.rng = NewSeededSource(seed) }
}

// WithRewardPoints overrides DefaultRewardPoints.
func WithRewardPoints(points int) Option {
	return func(w *World) { w.rewardPoints = points }
}

// World is the whole game state. It is not safe for concurrent use.
type World struct {
	width int
	size  int

	body     Body
	occupied []bool

	direction Direction
	next      Direction

	reward       int
	points       int
	rewardPoints int
	status       Status
	turn         int

	rng IndexSource
}

// New creates a world with a length-one snake at spawnIndex heading Right.
// The game is not started and no reward is placed.
func New(width, spawnIndex int, opts ...Option) (*World, error) {
	if width < MinWidth {
		return nil, fmt.Errorf("%w: width %d is below %d", ErrInvalidArgument, width, MinWidth)
	}
	size := width * width
	if spawnIndex < 0 || spawnIndex >= size {
		return nil, fmt.Errorf("%w: spawn index %d outside [0, %d)", ErrInvalidArgument, spawnIndex, size)
	}

	w := &World{
		width:        width,
		size:         size,
		body:         newBody(spawnIndex, size),
		occupied:     make([]bool, size),
		direction:    Right,
		next:         Right,
		reward:       noReward,
		rewardPoints: DefaultRewardPoints,
	}
	w.occupied[spawnIndex] = true
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = clockSource()
	}
	return w, nil
}

// StartGame moves an unstarted world to Played and places the first reward.
func (w *World) StartGame() error {
	if w.status != statusUnset {
		return fmt.Errorf("%w: status is %s", ErrAlreadyStarted, w.status)
	}
	w.status = Played
	if !w.placeReward() {
		w.status = Won
	}
	return nil
}

// ChangeSnakeDirection buffers d for the next Step. Reversing onto the neck
// is refused while the snake is longer than one cell. It reports whether d
// was accepted.
func (w *World) ChangeSnakeDirection(d Direction) bool {
	if !d.Valid() {
		return false
	}
	if w.body.Len() > 1 && d == w.direction.Opposite() {
		return false
	}
	w.next = d
	return true
}

// Step advances the snake one cell. It returns ErrNotPlaying, without
// touching any state, unless the status is Played.
func (w *World) Step() error {
	if w.status != Played {
		return ErrNotPlaying
	}

	w.direction = w.next
	head := w.neighbour(w.body.Head(), w.direction)
	growing := head == w.reward
	tail := w.body.Tail()

	if w.occupied[head] && (growing || head != tail) {
		w.status = Lost
		return nil
	}

	w.turn++
	if growing {
		w.body.PushFront(head)
		w.occupied[head] = true
		w.points += w.rewardPoints
		if !w.placeReward() {
			w.status = Won
		}
		return nil
	}

	w.occupied[w.body.PopBack()] = false
	w.body.PushFront(head)
	w.occupied[head] = true
	return nil
}

// neighbour is the cell one step from idx in direction d, wrapping at the
// board edges.
func (w *World) neighbour(idx int, d Direction) int {
	row, col := w.IndexToCell(idx)
	switch d {
	case Up:
		row = (row - 1 + w.width) % w.width
	case Down:
		row = (row + 1) % w.width
	case Left:
		col = (col - 1 + w.width) % w.width
	case Right:
		col = (col + 1) % w.width
	}
	return w.CellToIndex(row, col)
}

// Neighbour exposes the wraparound move for planners.
func (w *World) Neighbour(idx int, d Direction) int {
	return w.neighbour(idx, d)
}

func (w *World) IndexToCell(idx int) (row, col int) {
	return idx / w.width, idx % w.width
}

func (w *World) CellToIndex(row, col int) int {
	return row*w.width + col
}

func (w *World) Width() int { return w.width }
func (w *World) Size() int  { return w.size }

func (w *World) Points() int { return w.points }

// Turn counts completed moves.
func (w *World) Turn() int { return w.turn }

// Direction is the heading used by the last Step.
func (w *World) Direction() Direction { return w.direction }

// NextDirection is the buffered heading the next Step will use.
func (w *World) NextDirection() Direction { return w.next }

func (w *World) SnakeHead() int   { return w.body.Head() }
func (w *World) SnakeLength() int { return w.body.Len() }
func (w *World) SnakeCells() []int {
	return w.body.Cells()
}

// Occupied reports whether the snake covers idx.
func (w *World) Occupied(idx int) bool {
	return idx >= 0 && idx < w.size && w.occupied[idx]
}

// RewardCell returns the reward index, or false when none is placed.
func (w *World) RewardCell() (int, bool) {
	if w.reward == noReward {
		return 0, false
	}
	return w.reward, true
}

// GameStatus returns false before StartGame.
func (w *World) GameStatus() (Status, bool) {
	return w.status, w.status != statusUnset
}

func (w *World) GameStatusText() string {
	return w.status.Text()
}

package game

import "fmt"

// Snapshot is a read-only copy of a World for renderers, recorders and
// the wire. Reward is -1 when no reward is placed.
type Snapshot struct {
	Width      int       `json:"width"`
	Turn       int       `json:"turn"`
	Points     int       `json:"points"`
	Snake      []int     `json:"snake"`
	Reward     int       `json:"reward"`
	Direction  Direction `json:"direction"`
	Status     Status    `json:"status"`
	StatusText string    `json:"status_text"`
}

// Snapshot copies the current state.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Width:      w.width,
		Turn:       w.turn,
		Points:     w.points,
		Snake:      w.body.Cells(),
		Reward:     w.reward,
		Direction:  w.direction,
		Status:     w.status,
		StatusText: w.status.Text(),
	}
}

// Started reports whether the snapshot was taken after StartGame.
func (s Snapshot) Started() bool {
	return s.Status != statusUnset
}

// Head returns the snake head cell.
func (s Snapshot) Head() int {
	if len(s.Snake) == 0 {
		return -1
	}
	return s.Snake[0]
}

// Clone performs a deep copy of the world. The clone shares the random
// source, so planners that clone should not rely on reward positions.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}

	out := *w
	out.body = w.body.clone()
	out.occupied = make([]bool, len(w.occupied))
	copy(out.occupied, w.occupied)
	return &out
}

// FromSnapshot rebuilds a World from s, for clients that only see
// snapshots but want to plan with the engine. The buffered next direction
// is the snapshot's current direction.
func FromSnapshot(s Snapshot, opts ...Option) (*World, error) {
	if len(s.Snake) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no snake", ErrInvalidArgument)
	}
	w, err := New(s.Width, s.Snake[len(s.Snake)-1], opts...)
	if err != nil {
		return nil, err
	}
	if len(s.Snake) > w.size {
		return nil, fmt.Errorf("%w: snake of %d cells on %d cells", ErrInvalidArgument, len(s.Snake), w.size)
	}
	for i := len(s.Snake) - 2; i >= 0; i-- {
		idx := s.Snake[i]
		if idx < 0 || idx >= w.size || w.occupied[idx] {
			return nil, fmt.Errorf("%w: snake cell %d", ErrInvalidArgument, idx)
		}
		w.body.PushFront(idx)
		w.occupied[idx] = true
	}
	if s.Reward != noReward && (s.Reward < 0 || s.Reward >= w.size || w.occupied[s.Reward]) {
		return nil, fmt.Errorf("%w: reward cell %d", ErrInvalidArgument, s.Reward)
	}
	if !s.Direction.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrInvalidArgument, uint8(s.Direction))
	}
	if s.Status > Lost {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidArgument, uint8(s.Status))
	}

	w.reward = s.Reward
	w.direction, w.next = s.Direction, s.Direction
	w.points = s.Points
	w.turn = s.Turn
	w.status = s.Status
	return w, nil
}

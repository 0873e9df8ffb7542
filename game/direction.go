package game

import (
	"fmt"
	"strings"
)

// Direction is a snake heading on the board.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every heading in a fixed order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) Valid() bool {
	return d <= Right
}

// Opposite returns the heading that reverses d.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection accepts direction names as well as the key names the
// terminal and browser front ends forward (arrows, WASD).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "arrowup", "w", "k":
		return Up, nil
	case "down", "arrowdown", "s", "j":
		return Down, nil
	case "left", "arrowleft", "a", "h":
		return Left, nil
	case "right", "arrowright", "d", "l":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrInvalidArgument, uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

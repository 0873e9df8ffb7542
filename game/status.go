package game

import "fmt"

// Status is the lifecycle phase of a game. The zero value means the game
// has not been started; World.GameStatus reports it as absent.
type Status uint8

const (
	statusUnset Status = iota
	Played
	Won
	Lost
)

// Terminal reports whether no further Step can change the world.
func (s Status) Terminal() bool {
	return s == Won || s == Lost
}

func (s Status) String() string {
	switch s {
	case statusUnset:
		return "none"
	case Played:
		return "played"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Text is the label shown to players.
func (s Status) Text() string {
	switch s {
	case Played:
		return "Playing"
	case Won:
		return "You have won!"
	case Lost:
		return "You have lost!"
	default:
		return "No Status"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*s = statusUnset
	case "played":
		*s = Played
	case "won":
		*s = Won
	case "lost":
		*s = Lost
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, b)
	}
	return nil
}

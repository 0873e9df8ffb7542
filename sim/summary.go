package sim

import (
	"fmt"
	"time"

	"github.com/brensch/snekworld/game"
)

// Summary aggregates results as they arrive.
type Summary struct {
	Games      int
	Won        int
	Lost       int
	Unfinished int
	Turns      int
	BestPoints int
	BestGame   string
	Elapsed    time.Duration
}

func (s *Summary) Add(r GameResult) {
	s.Games++
	s.Turns += r.Turns
	s.Elapsed += r.Elapsed
	switch r.Status {
	case game.Won:
		s.Won++
	case game.Lost:
		s.Lost++
	default:
		s.Unfinished++
	}
	if s.BestGame == "" || r.Points > s.BestPoints {
		s.BestPoints = r.Points
		s.BestGame = r.GameID
	}
}

func (s Summary) MeanTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Turns) / float64(s.Games)
}

func (s Summary) String() string {
	return fmt.Sprintf("games=%d won=%d lost=%d unfinished=%d mean_turns=%.1f best=%d (%s)",
		s.Games, s.Won, s.Lost, s.Unfinished, s.MeanTurns(), s.BestPoints, s.BestGame)
}

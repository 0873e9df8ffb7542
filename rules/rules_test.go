package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brensch/snekworld/game"
)

type fixedSource []int

func (s fixedSource) Intn(n int) int { return s[0] % n }

// play applies each heading and steps once.
func play(t *testing.T, w *game.World, moves ...game.Direction) {
	t.Helper()
	for _, d := range moves {
		w.ChangeSnakeDirection(d)
		if err := w.Step(); err != nil {
			t.Fatalf("step %s: %v", d, err)
		}
	}
}

func dumpWorld(w *game.World) string {
	var b strings.Builder
	reward, _ := w.RewardCell()
	fmt.Fprintf(&b, "Turn=%d Points=%d Status=%s\n", w.Turn(), w.Points(), w.GameStatusText())
	for idx := 0; idx < w.Size(); idx++ {
		switch {
		case idx == w.SnakeHead():
			b.WriteByte('H')
		case w.Occupied(idx):
			b.WriteByte('o')
		case idx == reward:
			b.WriteByte('*')
		default:
			b.WriteByte('.')
		}
		if (idx+1)%w.Width() == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func TestSafeDirections_ExcludesNeck(t *testing.T) {
	// Free ordinal 12 is the cell right of the head, so the first step eats.
	w, err := game.New(5, 12, game.WithRand(fixedSource{12}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = w.StartGame()
	play(t, w, game.Right)
	t.Logf("\n%s", dumpWorld(w))

	if w.SnakeLength() != 2 {
		t.Fatalf("length=%d want=2", w.SnakeLength())
	}
	got := SafeDirections(w)
	want := []game.Direction{game.Up, game.Down, game.Right}
	if len(got) != len(want) {
		t.Fatalf("safe=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("safe=%v want=%v", got, want)
		}
	}
}

func TestSafeDirections_TerminalWorld(t *testing.T) {
	// Rewards always land on the lowest free cell, so this path eats five
	// times and then turns down into its own body.
	w, _ := game.New(3, 0, game.WithRand(fixedSource{0}))
	_ = w.StartGame()
	play(t, w, game.Right, game.Right, game.Down, game.Left, game.Left, game.Up, game.Right, game.Down)
	t.Logf("\n%s", dumpWorld(w))

	if status, _ := w.GameStatus(); status != game.Lost {
		t.Fatalf("status=%s want lost", status)
	}
	if got := SafeDirections(w); got != nil {
		t.Fatalf("safe=%v want nil", got)
	}
}

func TestAutopilot_HeadsForReward(t *testing.T) {
	// Free ordinal 2 with the snake at 12 is cell 2: straight above.
	w, _ := game.New(5, 12, game.WithRand(fixedSource{2}))
	_ = w.StartGame()
	if r, _ := w.RewardCell(); r != 2 {
		t.Fatalf("reward=%d want=2", r)
	}
	if d := Autopilot(w); d != game.Up {
		t.Fatalf("autopilot=%s want up", d)
	}
}

func TestDistance_Wraps(t *testing.T) {
	w, _ := game.New(5, 0)
	if d := Distance(w, 0, 4); d != 1 {
		t.Fatalf("distance 0->4=%d want=1", d)
	}
	if d := Distance(w, 0, 24); d != 2 {
		t.Fatalf("distance 0->24=%d want=2", d)
	}
	if d := Distance(w, 6, 18); d != 4 {
		t.Fatalf("distance 6->18=%d want=4", d)
	}
}

func TestPlay_AutopilotScores(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		w, _ := game.New(6, 0, game.WithSeed(seed))
		steps := 0
		status, err := Play(w, 400, func(*game.World) { steps++ })
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		t.Logf("seed %d status=%s steps=%d\n%s", seed, status, steps, dumpWorld(w))
		if w.Points() == 0 {
			t.Fatalf("seed %d: autopilot never ate", seed)
		}
		// A losing step is reported but does not advance the turn.
		if extra := steps - w.Turn(); extra != 0 && extra != 1 {
			t.Fatalf("callback steps=%d turn=%d", steps, w.Turn())
		}
	}
}

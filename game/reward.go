// reward.go implements reward placement for the world.

package game

import (
	"math/rand"
	"time"
)

// IndexSource picks an index in [0, n). *rand.Rand satisfies it; tests
// supply fixed sequences to make placement deterministic.
type IndexSource interface {
	Intn(n int) int
}

// DefaultRewardPoints is added to the score each time the snake eats.
const DefaultRewardPoints = 1

// NewSeededSource returns a math/rand source mixed from seed so that
// nearby seeds (e.g. consecutive game numbers) do not yield correlated
// reward sequences.
func NewSeededSource(seed int64) *rand.Rand {
	mixed := int64(splitmix64(uint64(seed)))
	if mixed == 0 {
		mixed = 1
	}
	return rand.New(rand.NewSource(mixed))
}

func clockSource() *rand.Rand {
	return NewSeededSource(time.Now().UnixNano())
}

// RandomSpawn picks a spawn cell for a board of the given width.
func RandomSpawn(width int, src IndexSource) int {
	if width <= 0 {
		return 0
	}
	if src == nil {
		src = clockSource()
	}
	return src.Intn(width * width)
}

// placeReward moves the reward to a uniformly chosen free cell. It returns
// false, leaving the reward absent, when the body covers the board.
func (w *World) placeReward() bool {
	free := w.size - w.body.Len()
	if free <= 0 {
		w.reward = noReward
		return false
	}

	pick := w.rng.Intn(free)
	if pick < 0 || pick >= free {
		pick = ((pick % free) + free) % free
	}
	for idx, taken := range w.occupied {
		if taken {
			continue
		}
		if pick == 0 {
			w.reward = idx
			return true
		}
		pick--
	}

	// Unreachable while occupancy agrees with the body.
	w.reward = noReward
	return false
}

// splitmix64 is the finaliser used to spread seeds.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

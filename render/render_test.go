package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekworld/game"
)

func rgb(c color.Color) [3]uint32 {
	r, g, b, _ := c.RGBA()
	return [3]uint32{r >> 8, g >> 8, b >> 8}
}

func TestPNG_DrawsSnakeAndReward(t *testing.T) {
	snap := game.Snapshot{
		Width:      4,
		Snake:      []int{5, 4},
		Reward:     15,
		Points:     2,
		StatusText: "Playing",
	}

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, snap, 10))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 40, b.Dx())
	assert.Equal(t, 40+statusBar, b.Dy())

	// Cell centres: 5 is row 1 col 1, 4 is row 1 col 0, 15 is row 3 col 3.
	assert.Equal(t, [3]uint32{0x78, 0x78, 0xdb}, rgb(img.At(15, 15)), "head")
	assert.Equal(t, [3]uint32{0x00, 0xff, 0x00}, rgb(img.At(5, 15)), "body")
	assert.Equal(t, [3]uint32{0xff, 0x00, 0x00}, rgb(img.At(35, 35)), "reward")
	assert.Equal(t, [3]uint32{0xff, 0xff, 0xff}, rgb(img.At(25, 5)), "empty")
}

func TestBoard_NoRewardAndThumbnail(t *testing.T) {
	w, err := game.New(3, 4)
	require.NoError(t, err)

	img, err := Board(w.Snapshot(), 16, DefaultPalette)
	require.NoError(t, err)
	thumb := Thumbnail(img, 12)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 12)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), 12)

	_, err = Board(game.Snapshot{}, 16, DefaultPalette)
	assert.Error(t, err)
}

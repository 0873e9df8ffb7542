// Package render draws board snapshots as images: grid lines, the snake
// with its head marked, the reward and the status line.
package render

import (
	"errors"
	"image"
	"image/png"
	"io"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/brensch/snekworld/game"
)

// Palette matches the browser canvas colours.
type Palette struct {
	Background string
	Grid       string
	Head       string
	Body       string
	Reward     string
	Text       string
}

var DefaultPalette = Palette{
	Background: "#ffffff",
	Grid:       "#e5e5e5",
	Head:       "#7878db",
	Body:       "#00ff00",
	Reward:     "#ff0000",
	Text:       "#000000",
}

const statusBar = 24

// Board draws snap at cellSize pixels per cell, with a status bar under
// the grid.
func Board(snap game.Snapshot, cellSize int, p Palette) (image.Image, error) {
	if snap.Width <= 0 || cellSize <= 0 {
		return nil, errors.New("render: width and cell size must be positive")
	}
	side := snap.Width * cellSize
	dc := gg.NewContext(side, side+statusBar)

	dc.SetHexColor(p.Background)
	dc.Clear()

	drawGrid(dc, snap.Width, cellSize, p.Grid)

	if snap.Reward >= 0 {
		fillCell(dc, snap.Reward, snap.Width, cellSize, p.Reward)
	}
	// Body first so the head is never painted over.
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		colour := p.Body
		if i == 0 {
			colour = p.Head
		}
		fillCell(dc, snap.Snake[i], snap.Width, cellSize, colour)
	}

	dc.SetHexColor(p.Text)
	dc.DrawStringAnchored(snap.StatusText+"  points: "+strconv.Itoa(snap.Points), 4, float64(side)+statusBar/2, 0, 0.5)
	return dc.Image(), nil
}

// PNG encodes Board(snap) to w.
func PNG(w io.Writer, snap game.Snapshot, cellSize int) error {
	img, err := Board(snap, cellSize, DefaultPalette)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Thumbnail scales img to fit within size x size.
func Thumbnail(img image.Image, size int) image.Image {
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

func drawGrid(dc *gg.Context, width, cellSize int, colour string) {
	dc.SetHexColor(colour)
	dc.SetLineWidth(1)
	side := float64(width * cellSize)
	for i := 0; i <= width; i++ {
		at := float64(i * cellSize)
		dc.DrawLine(at, 0, at, side)
		dc.DrawLine(0, at, side, at)
	}
	dc.Stroke()
}

func fillCell(dc *gg.Context, idx, width, cellSize int, colour string) {
	if idx < 0 || idx >= width*width {
		return
	}
	row, col := idx/width, idx%width
	dc.SetHexColor(colour)
	dc.DrawRectangle(float64(col*cellSize), float64(row*cellSize), float64(cellSize), float64(cellSize))
	dc.Fill()
}

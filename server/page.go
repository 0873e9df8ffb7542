package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

//go:embed assets
var embedded embed.FS

const canvasSelector = "canvas#snake-canvas"

// assetsFS returns the directory the static routes serve from.
func assetsFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "assets")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("assets dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// templatePage loads index.html and writes the board settings onto the
// canvas element as data attributes for app.js.
func templatePage(assets fs.FS, width, cellSize int) ([]byte, error) {
	raw, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		return nil, fmt.Errorf("read index.html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse index.html: %w", err)
	}
	canvas := doc.Find(canvasSelector)
	if canvas.Length() == 0 {
		return nil, errors.New("index.html has no " + canvasSelector)
	}
	canvas.SetAttr("data-width", strconv.Itoa(width))
	canvas.SetAttr("data-cell-size", strconv.Itoa(cellSize))

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render index.html: %w", err)
	}
	return []byte(html), nil
}

func isIndexFile(name string) bool {
	return filepath.Base(name) == "index.html"
}

package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	stddraw "image/draw"
	"strconv"

	"github.com/BourgeoisBear/rasterm"
	"golang.org/x/image/draw"

	"github.com/marklessapp/markless/internal/screen"
)

// ProtocolState holds one image scaled for the current layout, ready to be
// encoded for the picker's protocol. States are immutable after creation
// and replaced wholesale when the layout width changes.
type ProtocolState struct {
	protocol ProtocolType
	scaled   image.Image
	cols     int
	rows     int
	cellW    int
	cellH    int
}

// NewProtocolState scales img to at most targetCols columns, preserving
// aspect ratio. Half-blocks scale in cell space with CatmullRom; pixel
// protocols scale in pixel space with nearest-neighbor.
func (p *Picker) NewProtocolState(img image.Image, targetCols int) *ProtocolState {
	if targetCols < 1 {
		targetCols = 1
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW < 1 || srcH < 1 {
		return &ProtocolState{protocol: p.Protocol, scaled: img, cols: 1, rows: 1, cellW: p.CellW, cellH: p.CellH}
	}

	if p.Protocol == Halfblocks {
		// Each cell is one pixel wide and two half-pixels tall.
		pxW := targetCols
		pxH := srcH * pxW / srcW
		if pxH < 1 {
			pxH = 1
		}
		return &ProtocolState{
			protocol: Halfblocks,
			scaled:   scaleTo(img, pxW, pxH, draw.CatmullRom),
			cols:     pxW,
			rows:     (pxH + 1) / 2,
			cellW:    p.CellW,
			cellH:    p.CellH,
		}
	}

	cellW, cellH := p.CellW, p.CellH
	if cellW < 1 {
		cellW = 8
	}
	if cellH < 1 {
		cellH = 16
	}
	pxW := targetCols * cellW
	pxH := srcH * pxW / srcW
	if pxH < 1 {
		pxH = 1
	}
	return &ProtocolState{
		protocol: p.Protocol,
		scaled:   scaleTo(img, pxW, pxH, draw.NearestNeighbor),
		cols:     targetCols,
		rows:     (pxH + cellH - 1) / cellH,
		cellW:    cellW,
		cellH:    cellH,
	}
}

// CellSize is the footprint of the scaled image in terminal cells.
func (s *ProtocolState) CellSize() (cols, rows int) { return s.cols, s.rows }

// Payload encodes the cell-row slice [topRow, topRow+visibleRows) as the
// protocol's escape sequence.
func (s *ProtocolState) Payload(topRow, visibleRows int) (string, error) {
	img := s.cropRows(topRow, visibleRows)
	var buf bytes.Buffer
	switch s.protocol {
	case Kitty:
		if err := rasterm.KittyWriteImage(&buf, img, rasterm.KittyImgOpts{}); err != nil {
			return "", fmt.Errorf("kitty encode: %w", err)
		}
	case Iterm2:
		if err := rasterm.ItermWriteImage(&buf, img); err != nil {
			return "", fmt.Errorf("iterm2 encode: %w", err)
		}
	case Sixel:
		pal := image.NewPaletted(img.Bounds(), palette.Plan9)
		stddraw.Draw(pal, pal.Bounds(), img, img.Bounds().Min, stddraw.Src)
		if err := rasterm.SixelWriteImage(&buf, pal); err != nil {
			return "", fmt.Errorf("sixel encode: %w", err)
		}
	default:
		return "", fmt.Errorf("no escape payload for %s", s.protocol)
	}
	return buf.String(), nil
}

// cropRows cuts the pixel band backing cell rows [topRow, topRow+count).
func (s *ProtocolState) cropRows(topRow, count int) image.Image {
	if topRow <= 0 && count >= s.rows {
		return s.scaled
	}
	bounds := s.scaled.Bounds()
	y0 := bounds.Min.Y + topRow*s.cellH
	y1 := bounds.Min.Y + (topRow+count)*s.cellH
	if y1 > bounds.Max.Y {
		y1 = bounds.Max.Y
	}
	if y0 >= y1 {
		return s.scaled
	}
	rect := image.Rect(bounds.Min.X, y0, bounds.Max.X, y1)
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	stddraw.Draw(out, out.Bounds(), s.scaled, rect.Min, stddraw.Src)
	return out
}

// HalfblockRows renders cell rows [topRow, topRow+count) as ▀ cells whose
// foreground is the upper half-pixel and background the lower. On
// non-truecolor terminals colors collapse to the 6x6x6 indexed cube.
func (s *ProtocolState) HalfblockRows(topRow, count int, trueColor bool) [][]screen.Cell {
	bounds := s.scaled.Bounds()
	var rows [][]screen.Cell
	for r := topRow; r < topRow+count && r < s.rows; r++ {
		row := make([]screen.Cell, 0, s.cols)
		yTop := bounds.Min.Y + 2*r
		yBot := yTop + 1
		for x := 0; x < s.cols; x++ {
			fg := colorAt(s.scaled, bounds.Min.X+x, yTop, trueColor)
			bg := ""
			if yBot < bounds.Max.Y {
				bg = colorAt(s.scaled, bounds.Min.X+x, yBot, trueColor)
			}
			row = append(row, screen.Cell{Rune: '▀', Style: screen.Style{Fg: fg, Bg: bg}})
		}
		rows = append(rows, row)
	}
	return rows
}

func colorAt(img image.Image, x, y int, trueColor bool) string {
	r, g, b, a := img.At(x, y).RGBA()
	if a == 0 {
		return ""
	}
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	if trueColor {
		return fmt.Sprintf("#%02x%02x%02x", r8, g8, b8)
	}
	return strconv.Itoa(cubeIndex(r8, g8, b8))
}

// cubeIndex maps truecolor to the ANSI 256 palette's 6x6x6 cube.
func cubeIndex(r, g, b uint8) int {
	q := func(v uint8) int {
		return (int(v) * 5) / 255
	}
	return 16 + 36*q(r) + 6*q(g) + q(b)
}

func scaleTo(img image.Image, w, h int, scaler draw.Scaler) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

// Cell geometry in pixels. A real module has 5x8 dot cells; these leave
// room for a readable font.
const (
	cellW  = 14
	cellH  = 24
	margin = 10
)

// Renderer draws a Sim as an image: dark characters on a backlight-tinted
// panel, custom CGRAM glyphs rendered dot by dot.
type Renderer struct {
	sim  *Sim
	font *truetype.Font
}

// NewRenderer returns a Renderer for sim.
func NewRenderer(sim *Sim) (*Renderer, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	return &Renderer{sim: sim, font: f}, nil
}

// Bounds returns the pixel size of rendered images.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.sim.Cols()*cellW+2*margin, r.sim.Rows()*cellH+2*margin)
}

// Render draws the current screen.
func (r *Renderer) Render() image.Image {
	b := r.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	if r.sim.Backlight() {
		dc.SetRGB255(0x9f, 0xd4, 0x00) // lit yellow-green panel
	} else {
		dc.SetRGB255(0x49, 0x59, 0x28)
	}
	dc.Clear()
	if !r.sim.On() {
		return dc.Image()
	}
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: cellH - 6}))
	dc.SetRGB255(0x10, 0x18, 0x08)
	for rowIdx, row := range r.sim.Screen() {
		for colIdx := 0; colIdx < len(row); colIdx++ {
			c := row[colIdx]
			x := float64(margin + colIdx*cellW)
			y := float64(margin + rowIdx*cellH)
			if c < 8 {
				r.drawGlyph(dc, c, x, y)
				continue
			}
			if c < 0x20 || c > 0x7e {
				continue
			}
			dc.DrawStringAnchored(string(rune(c)), x+cellW/2, y+cellH/2, 0.5, 0.5)
		}
	}
	return dc.Image()
}

// drawGlyph renders a CGRAM slot as its 5x8 dot matrix.
func (r *Renderer) drawGlyph(dc *gg.Context, slot byte, x, y float64) {
	g := r.sim.Glyph(slot)
	dotW := float64(cellW) / 5
	dotH := float64(cellH) / 8
	for rowIdx, bits := range g {
		for dot := 0; dot < 5; dot++ {
			if bits&(1<<uint(4-dot)) == 0 {
				continue
			}
			dc.DrawRectangle(x+float64(dot)*dotW, y+float64(rowIdx)*dotH, dotW, dotH)
			dc.Fill()
		}
	}
}

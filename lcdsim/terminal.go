// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options available for a TerminalView.
type TerminalOpts struct {
	// Writer receives the output. Defaults to a colorable stdout.
	Writer io.Writer
	// Palette picks the ANSI palette. Defaults to ansi256.Default.
	Palette *ansi256.Palette

	_ struct{}
}

// TerminalView prints a Sim's screen to the console using ANSI color
// codes, with a bezel tinted like the backlight.
//
// Permits to do local testing of LCD output in a terminal.
type TerminalView struct {
	sim     *Sim
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

var (
	backlightLit = color.NRGBA{R: 0xff, G: 0xb0, B: 0x00, A: 255}
	backlightOff = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 255}
)

// NewTerminalView returns a view of sim printing to the console.
func NewTerminalView(sim *Sim, opts *TerminalOpts) *TerminalView {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &TerminalView{sim: sim, w: w, palette: *p}
}

func (v *TerminalView) String() string {
	return "TerminalView"
}

// Refresh redraws the whole module.
func (v *TerminalView) Refresh() error {
	bezel := backlightOff
	if v.sim.Backlight() {
		bezel = backlightLit
	}
	block := v.palette.Block(bezel)
	rows := v.sim.Screen()
	on := v.sim.On()

	// This code is designed to minimize the amount of memory allocated
	// per call.
	v.buf.Reset()
	for i := 0; i < v.sim.Cols()+2; i++ {
		_, _ = io.WriteString(&v.buf, block)
	}
	_, _ = v.buf.WriteString("\033[0m\n")
	for _, row := range rows {
		_, _ = io.WriteString(&v.buf, block)
		_, _ = v.buf.WriteString("\033[0m")
		if on {
			_, _ = v.buf.WriteString(printable(row))
		} else {
			for i := 0; i < len(row); i++ {
				_ = v.buf.WriteByte(' ')
			}
		}
		_, _ = io.WriteString(&v.buf, block)
		_, _ = v.buf.WriteString("\033[0m\n")
	}
	for i := 0; i < v.sim.Cols()+2; i++ {
		_, _ = io.WriteString(&v.buf, block)
	}
	_, _ = v.buf.WriteString("\033[0m\n")
	_, err := v.buf.WriteTo(v.w)
	return err
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the console is not corrupted.
func (v *TerminalView) Halt() error {
	_, err := v.w.Write([]byte("\n\033[0m"))
	return err
}

// printable maps CGRAM slots and other non-printable codes to placeholders
// a terminal can show.
func printable(row string) string {
	b := []byte(row)
	for i, c := range b {
		if c < 8 {
			b[i] = '0' + c
		} else if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
)

// transfer is one latched nibble as the LCD controller sees it.
type transfer struct {
	nibble byte
	data   bool
}

// decodeTransfers turns the raw load stream back into latched nibbles.
// Transfers appear as pairs of identical loads differing only in the
// Enable bit; single loads with Enable low (backlight updates) latch
// nothing and are skipped.
func decodeTransfers(t *testing.T, loads []byte, opts *Opts) []transfer {
	t.Helper()
	en := byte(1) << opts.EN
	rs := byte(1) << opts.RS
	positions := []uint8{opts.D4, opts.D5, opts.D6, opts.D7}
	var out []transfer
	for i := 0; i < len(loads); i++ {
		if loads[i]&en == 0 {
			continue
		}
		if i+1 >= len(loads) || loads[i+1] != loads[i]&^en {
			t.Fatalf("load %d (%#08b) with Enable high not followed by its Enable-low twin", i, loads[i])
		}
		var nibble byte
		for bit, pos := range positions {
			if loads[i]&(1<<pos) != 0 {
				nibble |= 1 << bit
			}
		}
		out = append(out, transfer{nibble: nibble, data: loads[i]&rs != 0})
		i++
	}
	return out
}

// decodeBytes pairs high/low nibble transfers back into bytes. All
// transfers must carry the same register select.
func decodeBytes(t *testing.T, transfers []transfer) []byte {
	t.Helper()
	if len(transfers)%2 != 0 {
		t.Fatalf("odd transfer count %d", len(transfers))
	}
	var out []byte
	for i := 0; i < len(transfers); i += 2 {
		if transfers[i].data != transfers[i+1].data {
			t.Fatalf("transfer pair %d mixes command and data", i/2)
		}
		out = append(out, transfers[i].nibble<<4|transfers[i+1].nibble)
	}
	return out
}

func newTestDisplay(t *testing.T, rows, cols int) (*Display, *fakeWire) {
	t.Helper()
	dev, w := newTestDev(t, &DefaultOpts)
	lcd, err := NewDisplay(dev, rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	return lcd, w
}

func TestInitSequence(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	_ = lcd
	got := decodeTransfers(t, w.loads, &DefaultOpts)
	want := []transfer{
		// 4-bit interface entry: three 0x3 nibbles, then 0x2.
		{nibble: 0x3}, {nibble: 0x3}, {nibble: 0x3}, {nibble: 0x2},
		// Function set, 4-bit 2-line.
		{nibble: 0x2}, {nibble: 0x8},
		// Display on, cursor and blink off.
		{nibble: 0x0}, {nibble: 0xc},
		// Clear.
		{nibble: 0x0}, {nibble: 0x1},
		// Entry mode, increment.
		{nibble: 0x0}, {nibble: 0x6},
		// Home.
		{nibble: 0x0}, {nibble: 0x2},
	}
	if diff := cmp.Diff(got, want, cmp.AllowUnexported(transfer{})); diff != "" {
		t.Errorf("init sequence (-got +want):\n%s", diff)
	}
}

func TestInitSequenceOneLine(t *testing.T) {
	_, w := newTestDisplay(t, 1, 8)
	got := decodeTransfers(t, w.loads, &DefaultOpts)
	// Function set must not request 2-line mode.
	if got[4].nibble != 0x2 || got[5].nibble != 0x0 {
		t.Errorf("function set nibbles = %x %x, want 2 0", got[4].nibble, got[5].nibble)
	}
}

func TestWriteString(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	w.reset()
	n, err := lcd.WriteString("Hi!")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("WriteString returned %d, want 3", n)
	}
	got := decodeTransfers(t, w.loads, &DefaultOpts)
	for i, tr := range got {
		if !tr.data {
			t.Errorf("transfer %d tagged as command", i)
		}
	}
	if diff := cmp.Diff(decodeBytes(t, got), []byte("Hi!")); diff != "" {
		t.Errorf("data bytes (-got +want):\n%s", diff)
	}
}

func TestMoveTo(t *testing.T) {
	for _, tc := range []struct {
		rows, cols int
		row, col   int
		want       byte
	}{
		{2, 16, 1, 1, 0x80},
		{2, 16, 1, 5, 0x84},
		{2, 16, 2, 1, 0xc0},
		{4, 20, 3, 1, 0x94},
		{4, 20, 4, 2, 0xd5},
		{4, 16, 3, 1, 0x90},
	} {
		lcd, w := newTestDisplay(t, tc.rows, tc.cols)
		w.reset()
		if err := lcd.MoveTo(tc.row, tc.col); err != nil {
			t.Fatal(err)
		}
		got := decodeBytes(t, decodeTransfers(t, w.loads, &DefaultOpts))
		if diff := cmp.Diff(got, []byte{tc.want}); diff != "" {
			t.Errorf("MoveTo(%d,%d) on %dx%d (-got +want):\n%s", tc.row, tc.col, tc.rows, tc.cols, diff)
		}
	}
}

func TestMoveToOutOfRange(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	w.reset()
	for _, pos := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 17}} {
		if err := lcd.MoveTo(pos[0], pos[1]); err == nil {
			t.Errorf("MoveTo(%d,%d) did not fail", pos[0], pos[1])
		}
	}
	if len(w.loads) != 0 {
		t.Errorf("out of range MoveTo transmitted %d loads", len(w.loads))
	}
}

func TestMove(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	w.reset()
	if err := lcd.Move(display.Forward); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Move(display.Backward); err != nil {
		t.Fatal(err)
	}
	got := decodeBytes(t, decodeTransfers(t, w.loads, &DefaultOpts))
	if diff := cmp.Diff(got, []byte{0x14, 0x10}); diff != "" {
		t.Errorf("Move commands (-got +want):\n%s", diff)
	}
	if err := lcd.Move(display.Up); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("Move(Up) = %v, want ErrNotImplemented", err)
	}
}

func TestCursor(t *testing.T) {
	for _, tc := range []struct {
		name  string
		modes []display.CursorMode
		want  byte
	}{
		{"off", []display.CursorMode{display.CursorOff}, 0x0c},
		{"underline", []display.CursorMode{display.CursorUnderline}, 0x0e},
		{"blink", []display.CursorMode{display.CursorBlink}, 0x0d},
		{"underline blink", []display.CursorMode{display.CursorUnderline, display.CursorBlink}, 0x0f},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lcd, w := newTestDisplay(t, 2, 16)
			w.reset()
			if err := lcd.Cursor(tc.modes...); err != nil {
				t.Fatal(err)
			}
			got := decodeBytes(t, decodeTransfers(t, w.loads, &DefaultOpts))
			if diff := cmp.Diff(got, []byte{tc.want}); diff != "" {
				t.Errorf("Cursor command (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDisplayOff(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	w.reset()
	if err := lcd.Display(false); err != nil {
		t.Fatal(err)
	}
	got := decodeBytes(t, decodeTransfers(t, w.loads, &DefaultOpts))
	if diff := cmp.Diff(got, []byte{0x08}); diff != "" {
		t.Errorf("Display(false) command (-got +want):\n%s", diff)
	}
}

func TestCreateChar(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	w.reset()
	glyph := [8]byte{0x0e, 0x11, 0x11, 0x1f, 0x11, 0x11, 0x11, 0x00}
	if err := lcd.CreateChar(2, glyph); err != nil {
		t.Fatal(err)
	}
	got := decodeTransfers(t, w.loads, &DefaultOpts)
	bytesOut := decodeBytes(t, got[:2])
	if bytesOut[0] != 0x50 {
		t.Errorf("CGRAM address command %#02x, want 0x50", bytesOut[0])
	}
	var rows []byte
	for i := 2; i < 18; i += 2 {
		if !got[i].data {
			t.Errorf("glyph row transfer %d tagged as command", i)
		}
		rows = append(rows, got[i].nibble<<4|got[i+1].nibble)
	}
	if diff := cmp.Diff(rows, glyph[:]); diff != "" {
		t.Errorf("glyph rows (-got +want):\n%s", diff)
	}
	if last := decodeBytes(t, got[18:]); last[0] != 0x80 {
		t.Errorf("addressing not restored to DDRAM, got %#02x", last[0])
	}
	if err := lcd.CreateChar(8, glyph); err == nil {
		t.Error("CreateChar(8) did not fail")
	}
}

func TestAutoScroll(t *testing.T) {
	lcd, _ := newTestDisplay(t, 2, 16)
	if err := lcd.AutoScroll(true); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("AutoScroll = %v, want ErrNotImplemented", err)
	}
}

func TestGeometry(t *testing.T) {
	lcd, _ := newTestDisplay(t, 4, 20)
	if lcd.Rows() != 4 || lcd.Cols() != 20 || lcd.MinRow() != 1 || lcd.MinCol() != 1 {
		t.Errorf("geometry %dx%d min (%d,%d)", lcd.Rows(), lcd.Cols(), lcd.MinRow(), lcd.MinCol())
	}
	if _, err := NewDisplay(lcd.dev, 0, 16); err == nil {
		t.Error("NewDisplay with 0 rows did not fail")
	}
	if len(lcd.String()) == 0 {
		t.Error("lcd.String()")
	}
}

func TestInterface(t *testing.T) {
	lcd, _ := newTestDisplay(t, 2, 16)
	defer func() { _ = lcd.Halt() }()
	errs := displaytest.TestTextDisplay(lcd, false)
	for _, err := range errs {
		if !errors.Is(err, display.ErrNotImplemented) {
			t.Error(err)
		}
	}
}

func TestHaltDisplay(t *testing.T) {
	lcd, w := newTestDisplay(t, 2, 16)
	lcd.dev.SetBacklightPin(7, ActiveHigh)
	if err := lcd.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	w.reset()
	if err := lcd.Halt(); err != nil {
		t.Fatal(err)
	}
	if last := w.loads[len(w.loads)-1]; last != 0 {
		t.Errorf("final load %#08b, want all outputs low", last)
	}
}

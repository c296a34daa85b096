// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// HD44780 instruction set.
const (
	cmdClearDisplay   byte = 0x01
	cmdReturnHome     byte = 0x02
	cmdEntryModeSet   byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdCursorShift    byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetCGRAMAddr   byte = 0x40
	cmdSetDDRAMAddr   byte = 0x80

	entryShiftIncrement byte = 0x02
	displayOn           byte = 0x04
	cursorOn            byte = 0x02
	blinkOn             byte = 0x01
	shiftRight          byte = 0x04
	function2Line       byte = 0x08

	// Clear and home take up to 1.52ms, far beyond the per-transfer
	// settle time.
	delayClearHome = 2 * time.Millisecond
	// The 4-bit entry sequence needs 4.1ms after the first nibble.
	delayPowerOn = 4100 * time.Microsecond
)

// DDRAM offsets of each row. 16 column modules interleave rows 3 and 4
// differently than 20 column ones.
var rowOffsets = [][]byte{{0, 0, 64, 16, 80}, {0, 0, 64, 20, 84}}

func rowOffset(row, maxcols int) byte {
	var wide int
	if maxcols != 16 {
		wide = 1
	}
	return rowOffsets[wide][row]
}

// Display layers the HD44780 instruction set over a Dev and implements
// display.TextDisplay and display.DisplayBacklight.
//
// Rows and columns are 1-based, with (1,1) the top-left cell.
type Display struct {
	dev    *Dev
	rows   int
	cols   int
	on     bool
	cursor bool
	blink  bool
}

// NewDisplay runs the HD44780 power-on sequence on dev and returns a
// Display ready for text. rows and cols describe the module geometry, e.g.
// 2x16 or 4x20.
//
// The entry into 4-bit mode follows the datasheet: three single-nibble
// 0x3 writes with a 4.1ms pause after the first, one 0x2 write, then
// function set, display on, clear, entry mode, home.
func NewDisplay(dev *Dev, rows, cols int) (*Display, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("sr3w: invalid geometry %dx%d", rows, cols)
	}
	lcd := &Display{dev: dev, rows: rows, cols: cols, on: true}
	return lcd, lcd.init()
}

func (lcd *Display) init() error {
	if err := lcd.dev.Send(0x03, FourBits); err != nil {
		return err
	}
	time.Sleep(delayPowerOn)
	_ = lcd.dev.Send(0x03, FourBits)
	_ = lcd.dev.Send(0x03, FourBits)
	// Switch the interface to 4-bit.
	if err := lcd.dev.Send(0x02, FourBits); err != nil {
		return err
	}
	function := cmdFunctionSet
	if lcd.rows > 1 {
		function |= function2Line
	}
	if err := lcd.command(function); err != nil {
		return err
	}
	if err := lcd.Display(true); err != nil {
		return err
	}
	if err := lcd.Clear(); err != nil {
		return err
	}
	if err := lcd.command(cmdEntryModeSet | entryShiftIncrement); err != nil {
		return err
	}
	return lcd.Home()
}

// command sends one instruction byte, padding the wait for the two
// slow instructions.
func (lcd *Display) command(cmd byte) error {
	err := lcd.dev.Send(cmd, Command)
	if cmd == cmdClearDisplay || cmd == cmdReturnHome {
		time.Sleep(delayClearHome)
	}
	return err
}

// Write sends character data at the current address.
func (lcd *Display) Write(p []byte) (n int, err error) {
	for _, b := range p {
		if err = lcd.dev.Send(b, Data); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes text at the current address.
func (lcd *Display) WriteString(text string) (int, error) {
	return lcd.Write([]byte(text))
}

// Clear blanks the screen and moves the cursor to (1,1).
func (lcd *Display) Clear() error {
	return lcd.command(cmdClearDisplay)
}

// Home moves the cursor to (1,1) and undoes any display shift.
func (lcd *Display) Home() error {
	return lcd.command(cmdReturnHome)
}

// MoveTo moves the cursor to the given 1-based row and column.
func (lcd *Display) MoveTo(row, col int) error {
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("sr3w: MoveTo(%d,%d) out of range for %dx%d", row, col, lcd.rows, lcd.cols)
	}
	return lcd.command(cmdSetDDRAMAddr | (rowOffset(row, lcd.cols) + byte(col-1)))
}

// Move moves the cursor one cell forward or backward.
func (lcd *Display) Move(dir display.CursorDirection) error {
	cmd := cmdCursorShift
	switch dir {
	case display.Backward:
	case display.Forward:
		cmd |= shiftRight
	default:
		return fmt.Errorf("sr3w: %w", display.ErrNotImplemented)
	}
	return lcd.command(cmd)
}

// Cursor sets the cursor style. Multiple modes can be combined, e.g.
// Cursor(CursorUnderline, CursorBlink).
func (lcd *Display) Cursor(modes ...display.CursorMode) error {
	lcd.cursor = false
	lcd.blink = false
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			lcd.cursor = false
			lcd.blink = false
		case display.CursorUnderline:
			lcd.cursor = true
		case display.CursorBlink, display.CursorBlock:
			// No block cursor on this controller; blink is the closest.
			lcd.blink = true
		default:
			return fmt.Errorf("sr3w: unexpected cursor mode %d", mode)
		}
	}
	return lcd.writeDisplayControl()
}

// Display turns the display on or off without losing its content.
func (lcd *Display) Display(on bool) error {
	lcd.on = on
	return lcd.writeDisplayControl()
}

func (lcd *Display) writeDisplayControl() error {
	cmd := cmdDisplayControl
	if lcd.on {
		cmd |= displayOn
	}
	if lcd.cursor {
		cmd |= cursorOn
	}
	if lcd.blink {
		cmd |= blinkOn
	}
	return lcd.command(cmd)
}

// CreateChar programs one of the eight CGRAM glyph slots with a 5x8 bitmap,
// one row per byte, bit 4 leftmost. The glyph is displayed by writing the
// slot number as character data. Addressing is restored to DDRAM before
// returning.
func (lcd *Display) CreateChar(slot uint8, glyph [8]byte) error {
	if slot > 7 {
		return fmt.Errorf("sr3w: CGRAM slot %d out of range", slot)
	}
	if err := lcd.command(cmdSetCGRAMAddr | slot<<3); err != nil {
		return err
	}
	for _, row := range glyph {
		if err := lcd.dev.Send(row, Data); err != nil {
			return err
		}
	}
	return lcd.command(cmdSetDDRAMAddr)
}

// Backlight switches the backlight through the shift register. A backlight
// output must have been configured on the Dev; without one this is a
// no-op.
func (lcd *Display) Backlight(intensity display.Intensity) error {
	return lcd.dev.SetBacklight(intensity)
}

// AutoScroll is not supported by this device.
func (lcd *Display) AutoScroll(enabled bool) error {
	return display.ErrNotImplemented
}

// Cols returns the number of columns.
func (lcd *Display) Cols() int {
	return lcd.cols
}

// Rows returns the number of rows.
func (lcd *Display) Rows() int {
	return lcd.rows
}

// MinCol returns the first column position.
func (lcd *Display) MinCol() int {
	return 1
}

// MinRow returns the first row position.
func (lcd *Display) MinRow() int {
	return 1
}

func (lcd *Display) String() string {
	return fmt.Sprintf("SR3W LCD %dx%d on %s", lcd.rows, lcd.cols, lcd.dev)
}

// Halt clears the screen, turns the backlight and display off, and drops
// every register output.
func (lcd *Display) Halt() error {
	_ = lcd.Clear()
	_ = lcd.Backlight(0)
	_ = lcd.Display(false)
	return lcd.dev.Halt()
}

var _ display.TextDisplay = &Display{}
var _ display.DisplayBacklight = &Display{}
var _ conn.Resource = &Display{}

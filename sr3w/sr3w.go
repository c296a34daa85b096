// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// Mode selects which LCD register a transfer is destined for.
type Mode uint8

const (
	// Command writes to the instruction register.
	Command Mode = iota
	// Data writes to the character data register.
	Data
	// FourBits transfers a single low nibble as an instruction. The 4-bit
	// interface entry sequence at power-on requires exactly one nibble per
	// transfer instead of the usual high/low pair.
	FourBits
)

// Polarity describes how the backlight is wired to its register output.
type Polarity bool

const (
	// ActiveHigh turns the backlight on when the output is high.
	ActiveHigh Polarity = false
	// ActiveLow turns the backlight on when the output is low.
	ActiveLow Polarity = true
)

// BacklightOpts assigns a shift register output to backlight control.
// The zero Polarity is ActiveHigh.
type BacklightOpts struct {
	Position uint8
	Polarity Polarity
}

// Opts describes how the register's parallel outputs Q0..Q7 are wired to
// the LCD module. Every field is an output position in the range 0-7.
// Positions need not be contiguous or ordered, but each LCD line must have
// an output of its own; overlaps cannot be detected on a write-only bus
// and simply produce garbage on the display.
type Opts struct {
	// EN, RW and RS are the positions of Enable, Read/Write and Register
	// Select.
	EN, RW, RS uint8
	// D4..D7 are the positions of the four data lines of the 4-bit
	// interface.
	D4, D5, D6, D7 uint8
	// Backlight, if set, assigns an output to backlight switching. It can
	// also be configured later with SetBacklightPin.
	Backlight *BacklightOpts
}

// DefaultOpts is the wiring used by the Arduino LiquidCrystal_SR3W
// library: Q0..Q3 drive D4..D7, Q4 drives Enable, Q5 Read/Write and Q6
// Register Select. Q7 is free for the backlight.
var DefaultOpts = Opts{D4: 0, D5: 1, D6: 2, D7: 3, EN: 4, RW: 5, RS: 6}

const (
	// The register's latch pulse must stay high longer than 450ns per the
	// 74HC595 datasheet.
	strobeWidth = time.Microsecond
	// HD44780 instructions need more than 37us to settle before the next
	// transfer may arrive.
	settleTime = 40 * time.Microsecond
)

// Dev commands an HD44780 compatible LCD through an 8-bit latching shift
// register driven by three GPIO lines.
//
// The bus is write-only and open loop: nothing is read back, so a wiring
// mistake shows up as garbage on the glass rather than as an error. The
// errors returned by the methods below surface GPIO write failures only.
//
// A Dev owns its three lines exclusively. Driving the same lines from two
// Devs is undefined.
type Dev struct {
	data   gpio.PinOut
	clock  gpio.PinOut
	strobe gpio.PinOut

	// Masks derived from Opts, fixed after construction.
	en       uint8
	rw       uint8
	rs       uint8
	dataMask [4]uint8 // D4..D7

	mu               sync.Mutex
	backlightPinMask uint8
	backlightSts     uint8
	polarity         Polarity
}

// New returns a Dev using the default wiring of DefaultOpts.
//
// Construction only builds the mask tables; no I/O happens until the first
// transfer.
func New(data, clock, strobe gpio.PinOut) (*Dev, error) {
	return NewWithOpts(data, clock, strobe, &DefaultOpts)
}

// NewWithOpts returns a Dev with a custom output-to-pin assignment.
//
// Unlike the Arduino LiquidCrystal_SR3W library, opts.RS is honored. The
// C++ custom-mapping constructors pass the Enable position where Register
// Select is expected, so a custom RS there is silently ignored; sketches
// that depended on that defect need their wiring description fixed when
// porting.
func NewWithOpts(data, clock, strobe gpio.PinOut, opts *Opts) (*Dev, error) {
	if data == nil || clock == nil || strobe == nil {
		return nil, errors.New("sr3w: data, clock and strobe lines are all required")
	}
	d := &Dev{
		data:     data,
		clock:    clock,
		strobe:   strobe,
		en:       1 << opts.EN,
		rw:       1 << opts.RW,
		rs:       1 << opts.RS,
		dataMask: [4]uint8{1 << opts.D4, 1 << opts.D5, 1 << opts.D6, 1 << opts.D7},
	}
	if opts.Backlight != nil {
		d.backlightPinMask = 1 << opts.Backlight.Position
		d.polarity = opts.Backlight.Polarity
	}
	return d, nil
}

// SetBacklightPin records which register output switches the backlight and
// with which polarity. Nothing is transmitted; the setting takes effect on
// the next SetBacklight call.
func (d *Dev) SetBacklightPin(position uint8, polarity Polarity) {
	d.mu.Lock()
	d.backlightPinMask = 1 << position
	d.polarity = polarity
	d.mu.Unlock()
}

// SetBacklight switches the backlight on or off. Only zero versus non-zero
// intensity is distinguished; a latched register output cannot dim. It is
// a no-op when no backlight output has been configured.
//
// The new state is transmitted immediately as a load carrying only the
// backlight bit, so the LCD control and data lines briefly read all zeros.
// Enable stays low during that load, so the controller latches nothing.
// The state is then folded into every following transfer.
func (d *Dev) SetBacklight(intensity display.Intensity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backlightPinMask == 0 {
		return nil
	}
	if (d.polarity == ActiveHigh && intensity > 0) || (d.polarity == ActiveLow && intensity == 0) {
		d.backlightSts = d.backlightPinMask
	} else {
		d.backlightSts = 0
	}
	return d.loadSR(d.backlightSts)
}

// Send transmits an 8-bit value to the LCD. For Command and Data the high
// nibble is transferred first, then the low nibble. For FourBits only the
// low nibble is transferred, as an instruction.
func (d *Dev) Send(value byte, mode Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mode == FourBits {
		return d.write4Bits(value&0x0f, Command)
	}
	if err := d.write4Bits(value>>4, mode); err != nil {
		return err
	}
	return d.write4Bits(value&0x0f, mode)
}

// write4Bits performs one 4-bit transfer: the nibble is mapped through the
// wiring table (bit 0 to D4 .. bit 3 to D7), Register Select is set for
// Data, the backlight state is folded in, and the byte is loaded twice,
// first with Enable high then with Enable low. The controller latches the
// nibble on Enable's falling edge. Read/Write always stays low.
func (d *Dev) write4Bits(nibble byte, mode Mode) error {
	var v uint8
	for i := uint8(0); i < 4; i++ {
		if nibble&(1<<i) != 0 {
			v |= d.dataMask[i]
		}
	}
	if mode == Data {
		v |= d.rs
	}
	v |= d.backlightSts
	if err := d.loadSR(v | d.en); err != nil {
		return err
	}
	return d.loadSR(v &^ d.en)
}

// loadSR shifts one byte into the register MSB first, then pulses the
// strobe to latch it onto the parallel outputs. The LCD sees the new byte
// appear atomically on the latch edge. The strobe is held high for 1us
// (datasheet minimum is 450ns) and the call does not return for another
// 40us so a back-to-back transfer cannot beat the controller's 37us
// instruction time.
//
// The caller must hold d.mu: the AVR original brackets the strobe pulse in
// an interrupt-disabled block, and exclusive access to the lines is the
// closest a user-space process gets.
func (d *Dev) loadSR(v byte) error {
	for i := 7; i >= 0; i-- {
		if err := d.data.Out(gpio.Level(v&(1<<uint(i)) != 0)); err != nil {
			return err
		}
		if err := d.clock.Out(gpio.High); err != nil {
			return err
		}
		if err := d.clock.Out(gpio.Low); err != nil {
			return err
		}
	}
	if err := d.strobe.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(strobeWidth)
	if err := d.strobe.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(settleTime)
	return nil
}

// Halt drives every register output low, which also turns off an
// active-high backlight.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backlightSts = 0
	return d.loadSR(0)
}

func (d *Dev) String() string {
	return fmt.Sprintf("sr3w{data: %s, clock: %s, strobe: %s}", d.data, d.clock, d.strobe)
}

var _ conn.Resource = &Dev{}

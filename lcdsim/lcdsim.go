// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim simulates an HD44780 character LCD wired behind a 3-wire
// latching shift register.
//
// The simulator exposes the three lines as gpio.PinOut, so an sr3w.Dev can
// drive it exactly as it would drive hardware: bits shifted on clock rising
// edges are latched onto the virtual register outputs by the strobe, the
// Enable falling edge latches nibbles into a model of the controller, and
// the resulting DDRAM content can be inspected, printed to a color
// terminal, rendered to an image, or served over HTTP.
//
// Useful while you are waiting for your display module to come by mail,
// and for tests that assert on what actually ends up on the glass.
package lcdsim

import (
	"strings"
	"sync"

	"github.com/juampi115/New-LiquidCrystal/sr3w"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	ddramSize = 0x68
	cgramSize = 64
)

// Sim models the shift register and the LCD controller behind it.
//
// All methods are safe for concurrent use; a renderer can read the screen
// while a driver writes to it.
type Sim struct {
	rows, cols int
	opts       sr3w.Opts

	mu     sync.Mutex
	data   gpio.Level
	clock  gpio.Level
	strobe gpio.Level

	shift   byte // serial input stage
	latched byte // parallel outputs
	enable  bool

	// Controller state. The chip powers up in 8-bit mode; the entry
	// sequence's function-set to 4-bit starts nibble pairing.
	eightBit  bool
	haveHi    bool
	hi        byte
	ddram     [ddramSize]byte
	cgram     [cgramSize]byte
	ac        byte
	cgramMode bool
	increment bool
	on        bool
	cursor    bool
	blink     bool
	backlight bool
}

// New returns a simulated rows x cols module. A nil opts uses
// sr3w.DefaultOpts; pass the same Opts the driver was built with, backlight
// assignment included, or the decoded lines will not line up.
func New(rows, cols int, opts *sr3w.Opts) *Sim {
	if opts == nil {
		opts = &sr3w.DefaultOpts
	}
	s := &Sim{rows: rows, cols: cols, opts: *opts, eightBit: true, increment: true}
	for i := range s.ddram {
		s.ddram[i] = ' '
	}
	return s
}

// Data returns the serial data line.
func (s *Sim) Data() gpio.PinOut {
	return &line{sim: s, name: "SIM_DATA", set: (*Sim).setData}
}

// Clock returns the shift clock line.
func (s *Sim) Clock() gpio.PinOut {
	return &line{sim: s, name: "SIM_CLOCK", set: (*Sim).setClock}
}

// Strobe returns the latch strobe line.
func (s *Sim) Strobe() gpio.PinOut {
	return &line{sim: s, name: "SIM_STROBE", set: (*Sim).setStrobe}
}

func (s *Sim) setData(l gpio.Level) {
	s.data = l
}

func (s *Sim) setClock(l gpio.Level) {
	if l && !s.clock {
		s.shift <<= 1
		if s.data {
			s.shift |= 1
		}
	}
	s.clock = l
}

func (s *Sim) setStrobe(l gpio.Level) {
	if l && !s.strobe {
		s.latched = s.shift
		s.outputsChanged()
	}
	s.strobe = l
}

// outputsChanged reacts to a new byte on the register's parallel outputs:
// tracks the backlight line and feeds the controller on Enable's falling
// edge.
func (s *Sim) outputsChanged() {
	if bl := s.opts.Backlight; bl != nil {
		high := s.latched&(1<<bl.Position) != 0
		s.backlight = high == (bl.Polarity == sr3w.ActiveHigh)
	}
	enable := s.latched&(1<<s.opts.EN) != 0
	if s.enable && !enable {
		var nibble byte
		for i, pos := range []uint8{s.opts.D4, s.opts.D5, s.opts.D6, s.opts.D7} {
			if s.latched&(1<<pos) != 0 {
				nibble |= 1 << i
			}
		}
		s.latchNibble(nibble, s.latched&(1<<s.opts.RS) != 0)
	}
	s.enable = enable
}

func (s *Sim) latchNibble(nibble byte, data bool) {
	if s.eightBit {
		// Only DB7..DB4 are connected; the controller executes the
		// nibble as the high half of an instruction. A function set
		// with DB4 low (nibble 0x2) switches to the 4-bit interface.
		if !data && nibble == 0x2 {
			s.eightBit = false
		}
		return
	}
	if !s.haveHi {
		s.hi = nibble
		s.haveHi = true
		return
	}
	s.haveHi = false
	s.execute(s.hi<<4|nibble, data)
}

func (s *Sim) execute(b byte, data bool) {
	if data {
		s.writeRAM(b)
		return
	}
	switch {
	case b&0x80 != 0: // set DDRAM address
		s.ac = b & 0x7f
		s.cgramMode = false
	case b&0x40 != 0: // set CGRAM address
		s.ac = b & 0x3f
		s.cgramMode = true
	case b&0x20 != 0: // function set
		// Interface width was handled during the entry sequence; line
		// count and font do not change the visible model.
	case b&0x10 != 0: // cursor or display shift
		if b&0x08 == 0 {
			if b&0x04 != 0 {
				s.ac++
			} else if s.ac > 0 {
				s.ac--
			}
		}
	case b&0x08 != 0: // display control
		s.on = b&0x04 != 0
		s.cursor = b&0x02 != 0
		s.blink = b&0x01 != 0
	case b&0x04 != 0: // entry mode
		s.increment = b&0x02 != 0
	case b&0x02 != 0: // return home
		s.ac = 0
		s.cgramMode = false
	case b&0x01 != 0: // clear
		for i := range s.ddram {
			s.ddram[i] = ' '
		}
		s.ac = 0
		s.cgramMode = false
		s.increment = true
	}
}

func (s *Sim) writeRAM(b byte) {
	if s.cgramMode {
		s.cgram[s.ac&0x3f] = b
		s.ac = (s.ac + 1) & 0x3f
		return
	}
	if int(s.ac) < ddramSize {
		s.ddram[s.ac] = b
	}
	if s.increment {
		s.ac++
	} else if s.ac > 0 {
		s.ac--
	}
}

// Screen returns the visible rows as text. Character codes 0-7 (custom
// CGRAM glyphs) are returned as-is. The content is returned even while the
// display is switched off; use On to tell the difference.
func (s *Sim) Screen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, s.rows)
	for row := 1; row <= s.rows; row++ {
		var b strings.Builder
		off := int(rowOffset(row, s.cols))
		for col := 0; col < s.cols; col++ {
			i := off + col
			if i < ddramSize {
				b.WriteByte(s.ddram[i])
			} else {
				b.WriteByte(' ')
			}
		}
		out[row-1] = b.String()
	}
	return out
}

// Glyph returns the 5x8 bitmap programmed into a CGRAM slot.
func (s *Sim) Glyph(slot uint8) [8]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var g [8]byte
	copy(g[:], s.cgram[(slot&7)*8:])
	return g
}

// Backlight reports whether the backlight is lit.
func (s *Sim) Backlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backlight
}

// On reports whether the display is switched on.
func (s *Sim) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Rows returns the number of rows.
func (s *Sim) Rows() int {
	return s.rows
}

// Cols returns the number of columns.
func (s *Sim) Cols() int {
	return s.cols
}

func (s *Sim) String() string {
	return "lcdsim"
}

// DDRAM offsets of each row, matching the controller's interleaved
// addressing.
var rowOffsets = [][]byte{{0, 0, 64, 16, 80}, {0, 0, 64, 20, 84}}

func rowOffset(row, maxcols int) byte {
	var wide int
	if maxcols != 16 {
		wide = 1
	}
	return rowOffsets[wide][row]
}

// line is one of the simulator's three inputs, presented as gpio.PinOut.
type line struct {
	sim  *Sim
	name string
	set  func(*Sim, gpio.Level)
}

func (l *line) Halt() error      { return nil }
func (l *line) Name() string     { return l.name }
func (l *line) Number() int      { return 0 }
func (l *line) Function() string { return "Out" }
func (l *line) String() string   { return l.name }

func (l *line) Out(level gpio.Level) error {
	l.sim.mu.Lock()
	l.set(l.sim, level)
	l.sim.mu.Unlock()
	return nil
}

// PWM treats any non-zero duty as high. Good enough for a backlight
// experiment against the simulator.
func (l *line) PWM(duty gpio.Duty, f physic.Frequency) error {
	return l.Out(gpio.Level(duty > 0))
}

var _ gpio.PinOut = &line{}

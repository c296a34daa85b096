// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sr3w drives Hitachi HD44780 compatible character LCDs through an
// 8-bit latching shift register, using only three GPIO lines: serial data,
// shift clock, and the latch strobe.
//
// Tested wiring uses a 74HC595, but any serial-in parallel-out register
// with a separate latch input works (MC14094, HEF4094). The register's
// parallel outputs drive the LCD's 4-bit interface:
//
//	+--------------------------------------------+
//	|                 host                       |
//	|   IO1           IO2           IO3          |
//	+----+-------------+-------------+-----------+
//	     |             |             |
//	+----+-------------+-------------+-----------+
//	|    Strobe        Data          Clock       |
//	|          8-bit shift/latch register        |
//	|    Q0   Q1   Q2   Q3   Q4   Q5   Q6   Q7   |
//	+----+----+----+----+----+----+----+---------+
//	     |    |    |    |    |    |    |
//	+----+----+----+----+----+----+----+---------+
//	|    DB4  DB5  DB6  DB7  E    R/W  RS        |
//	|                LCD module                  |
//	+--------------------------------------------+
//
// Any output-to-pin assignment works; the default matches the diagram above
// and the Arduino LiquidCrystal_SR3W library this package derives from. A
// spare register output can switch the backlight.
//
// Dev is the raw transfer engine. Display layers the HD44780 instruction
// set on top of it and implements display.TextDisplay.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// https://www.nexperia.com/product/74HC595D
package sr3w

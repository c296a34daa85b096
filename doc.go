// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package liquidcrystal drives HD44780 compatible character LCD modules
// wired behind an 8-bit latching shift register, using three GPIO lines
// instead of the six to eleven a direct hookup needs.
//
// The sr3w package contains the driver, and lcdsim a host-side simulator
// for developing without hardware.
package liquidcrystal

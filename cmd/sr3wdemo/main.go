// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sr3wdemo exercises an HD44780 module behind a 3-wire shift register.
//
// Against real hardware it resolves three GPIO lines by name:
//
//	sr3wdemo -data GPIO17 -clock GPIO27 -strobe GPIO22 -backlight 7
//
// With -sim it drives the built-in simulator instead, repaints it in the
// terminal, and serves snapshots at http://localhost:8080/lcd.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/juampi115/New-LiquidCrystal/lcdsim"
	"github.com/juampi115/New-LiquidCrystal/sr3w"
)

var (
	simulate  = flag.Bool("sim", false, "drive the simulator instead of hardware")
	httpAddr  = flag.String("http", "localhost:8080", "simulator snapshot address")
	rows      = flag.Int("rows", 2, "display rows")
	cols      = flag.Int("cols", 16, "display columns")
	dataPin   = flag.String("data", "GPIO17", "shift register data line")
	clockPin  = flag.String("clock", "GPIO27", "shift register clock line")
	strobePin = flag.String("strobe", "GPIO22", "shift register strobe line")
	backlight = flag.Int("backlight", -1, "register output of the backlight, -1 for none")
	activeLow = flag.Bool("backlight-active-low", false, "backlight is wired active-low")
	verbose   = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	opts := sr3w.DefaultOpts
	if *backlight >= 0 {
		pol := sr3w.ActiveHigh
		if *activeLow {
			pol = sr3w.ActiveLow
		}
		opts.Backlight = &sr3w.BacklightOpts{Position: uint8(*backlight), Polarity: pol}
	}

	var data, clock, strobe gpio.PinOut
	var view *lcdsim.TerminalView

	if *simulate {
		sim := lcdsim.New(*rows, *cols, &opts)
		data, clock, strobe = sim.Data(), sim.Clock(), sim.Strobe()
		view = lcdsim.NewTerminalView(sim, nil)
		r, err := lcdsim.NewRenderer(sim)
		if err != nil {
			log.WithError(err).Fatal("renderer")
		}
		http.Handle("/lcd", r)
		go func() {
			log.WithField("addr", *httpAddr).Info("serving simulator snapshots at /lcd")
			log.Fatal(http.ListenAndServe(*httpAddr, nil))
		}()
	} else {
		if _, err := host.Init(); err != nil {
			log.WithError(err).Fatal("host init")
		}
		for _, l := range []struct {
			name string
			out  *gpio.PinOut
		}{{*dataPin, &data}, {*clockPin, &clock}, {*strobePin, &strobe}} {
			p := gpioreg.ByName(l.name)
			if p == nil {
				log.WithField("pin", l.name).Fatal("no such GPIO")
			}
			*l.out = p
		}
	}

	dev, err := sr3w.NewWithOpts(data, clock, strobe, &opts)
	if err != nil {
		log.WithError(err).Fatal("driver")
	}
	log.WithField("dev", dev.String()).Debug("transport ready")

	lcd, err := sr3w.NewDisplay(dev, *rows, *cols)
	if err != nil {
		log.WithError(err).Fatal("display init")
	}
	defer func() { _ = lcd.Halt() }()

	if opts.Backlight != nil {
		if err := lcd.Backlight(0xff); err != nil {
			log.WithError(err).Fatal("backlight")
		}
	}

	if _, err := lcd.WriteString("sr3w demo"); err != nil {
		log.WithError(err).Fatal("write")
	}
	for i := 0; ; i++ {
		if *rows > 1 {
			if err := lcd.MoveTo(2, 1); err != nil {
				log.WithError(err).Fatal("move")
			}
		} else {
			_ = lcd.Home()
		}
		if _, err := lcd.WriteString(fmt.Sprintf("%-8s%8d", time.Now().Format("15:04:05"), i)); err != nil {
			log.WithError(err).Fatal("write")
		}
		if opts.Backlight != nil && i%10 == 5 {
			_ = lcd.Backlight(0)
		} else if opts.Backlight != nil && i%10 == 6 {
			_ = lcd.Backlight(0xff)
		}
		if view != nil {
			if err := view.Refresh(); err != nil {
				log.WithError(err).Fatal("refresh")
			}
		}
		time.Sleep(time.Second)
	}
}

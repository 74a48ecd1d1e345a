// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of simulated devices for boardsim.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"github.com/db47h/boardsim"
)

// Descriptor kinds of the devices in this package.
//
const (
	KindMCU    = "mcu"
	KindLED    = "led"
	KindWS2812 = "ws2812"
	KindST7789 = "st7789"
)

// Register registers every device kind of this package in reg.
//
func Register(reg *boardsim.Registry) {
	reg.Register(KindMCU, makeMCU)
	reg.Register(KindLED, makeLED)
	reg.Register(KindWS2812, makeWS2812)
	reg.Register(KindST7789, makeST7789)
}

// NewRegistry returns a registry with all the kinds of this package
// registered.
//
func NewRegistry() *boardsim.Registry {
	reg := boardsim.NewRegistry()
	Register(reg)
	return reg
}

// shiftOut feeds b to every shift register sink connected to p, except from.
//
func shiftOut(from boardsim.Device, p *boardsim.Pin, b byte) {
	for _, q := range p.Connected() {
		if q.Device() == from {
			continue
		}
		if s, ok := q.Device().(boardsim.ShiftSink); ok {
			s.ShiftByte(q, b)
		}
	}
}

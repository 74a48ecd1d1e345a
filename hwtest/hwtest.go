// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing schematics: a set of
// test descriptors, a probe device counting pin notifications and a scripted
// sandbox standing in for a running program.
//
package hwtest

import (
	"context"
	"testing"

	"github.com/db47h/boardsim"
	"github.com/db47h/boardsim/hwlib"
	"github.com/stretchr/testify/require"
)

// KindProbe is the kind of the Probe device.
//
const KindProbe = "probe"

// Descriptors are the device descriptors registered by Registry.
//
//	mcu:      8 I/O pins P[0]..P[7] plus GND (output, low)
//	led:      anode, cathode
//	ws2812:   din, dout
//	st7789:   240x320 panel, pins scl, sda, dc, cs, reset
//	st7789r:  240x240 panel with a row offset of 80
//	probe:    in[0]..in[3]
//	board:    composite with an mcu and an on-board LED. D[i] is tied to
//	          mcu.P[i], the LED anode to mcu.P[7] and its cathode to ground.
//
const Descriptors = `
name: mcu
kind: mcu
width: 20
height: 20
params:
  clockHz: 16000000
pins:
  - {name: "P[0..7]", x: 1, y: 0, dx: 2}
  - {name: GND, mode: output, x: 19, y: 0}
---
name: led
kind: led
width: 5
height: 10
pins:
  - {name: anode, x: 1, y: 10}
  - {name: cathode, x: 4, y: 10}
---
name: ws2812
kind: ws2812
width: 5
height: 5
pins:
  - {name: din, x: 0, y: 2}
  - {name: dout, x: 5, y: 2}
---
name: st7789
kind: st7789
width: 30
height: 40
pins:
  - {name: scl}
  - {name: sda}
  - {name: dc}
  - {name: cs}
  - {name: reset}
---
name: st7789r
kind: st7789
width: 30
height: 30
params:
  width: 240
  height: 240
  rowOffset: 80
pins:
  - {name: scl}
  - {name: sda}
  - {name: dc}
  - {name: cs}
---
name: probe
kind: probe
pins:
  - {name: "in[0..3]"}
---
name: board
kind: composite
width: 50
height: 20
objects:
  - {id: mcu, device: mcu, x: 15}
  - {id: led, device: led, x: 40}
pins:
  - {name: "D[0..7]", x: 2, y: 20, dx: 2.54, connect: ["mcu.P[0..7]"]}
  - {connect: ["mcu.P[7]", led.anode]}
  - {name: GND, x: 25, y: 20, connect: [mcu.GND, led.cathode]}
`

// Registry returns a registry with the hwlib kinds, the probe kind and the
// test descriptors.
//
func Registry(t testing.TB) *boardsim.Registry {
	t.Helper()
	reg := hwlib.NewRegistry()
	reg.Register(KindProbe, makeProbe)
	require.NoError(t, reg.Parse([]byte(Descriptors)))
	return reg
}

// Schematic returns a schematic built from Registry(t) with a "board" root
// device with id "main".
//
func Schematic(t testing.TB, opts ...boardsim.Option) *boardsim.Schematic {
	t.Helper()
	s := boardsim.New(Registry(t), opts...)
	Add(t, s, "main", "board")
	return s
}

// Add adds a device to s and fails the test on error.
//
func Add(t testing.TB, s *boardsim.Schematic, id, device string) boardsim.Device {
	t.Helper()
	d, err := s.AddDevice(context.Background(), boardsim.Object{ID: id, Device: device})
	require.NoError(t, err)
	return d
}

// Pin returns the pin at ref ("object.pin") and fails the test if it does not
// exist.
//
func Pin(t testing.TB, s *boardsim.Schematic, ref string) *boardsim.Pin {
	t.Helper()
	r, err := boardsim.ParsePinRef(ref)
	require.NoError(t, err)
	p := s.Pin(r)
	require.NotNil(t, p, "pin %s", ref)
	return p
}

// Probe is a device that counts PinChanged notifications per pin.
//
type Probe struct {
	*boardsim.Base
	calls map[*boardsim.Pin]int
}

func makeProbe(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	return &Probe{Base: b, calls: make(map[*boardsim.Pin]int)}, nil
}

// PinChanged implements boardsim.PinChangeHandler.
//
func (p *Probe) PinChanged(pin *boardsim.Pin) { p.calls[pin]++ }

// Calls returns the number of notifications received on the named pin.
//
func (p *Probe) Calls(name string) int { return p.calls[p.MustPin(name)] }

// Clear resets all counters.
//
func (p *Probe) Clear() { p.calls = make(map[*boardsim.Pin]int) }

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"context"

	"github.com/db47h/boardsim"
)

// LED is a plain two pin LED.
//
//	Pins: anode, cathode
//
// The LED is lit when at least one of its pins is wired and no wired pin
// contradicts conduction: a wired anode must not be driven low and a wired
// cathode must not be driven high. A wired but floating pin does not
// contradict conduction, so an LED with a single wire to a high output lights
// up.
//
type LED struct {
	*boardsim.Base
	pins struct {
		Anode   *boardsim.Pin `hw:"anode"`
		Cathode *boardsim.Pin `hw:"cathode"`
	}
	on bool
}

func makeLED(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	l := &LED{Base: b}
	if err := b.BindPins(&l.pins); err != nil {
		return nil, err
	}
	return l, nil
}

// On returns true if the LED is lit.
//
func (l *LED) On() bool { return l.on }

// Color returns the LED color from its instance properties.
//
func (l *LED) Color() string {
	if c := l.Object().Color; c != "" {
		return c
	}
	return "red"
}

// PinChanged implements boardsim.PinChangeHandler.
//
func (l *LED) PinChanged(*boardsim.Pin) {
	on := l.lit()
	if on != l.on {
		l.on = on
		l.Changed()
	}
}

func (l *LED) lit() bool {
	a, c := l.pins.Anode, l.pins.Cathode
	aw, cw := a.IsWired(), c.IsWired()
	if !aw && !cw {
		return false
	}
	if aw && a.IsLow() {
		return false
	}
	if cw && c.IsHigh() {
		return false
	}
	return true
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"context"
	"image/color"
	"math"

	"github.com/db47h/boardsim"
)

// gamma is the exponent applied to channel values for display. It was chosen
// to visually match real LEDs.
//
const gamma = 1.0 / 4

// WS2812 is an addressable RGB LED built around a 3 byte shift register.
//
//	Pins: din, dout
//
// Every byte received on din is shifted in. When the register already holds
// 3 bytes, the oldest one is first shifted out on dout to the next LED of the
// chain. The register is latched on the next Tick after a write.
//
type WS2812 struct {
	*boardsim.Base
	pins struct {
		DIn  *boardsim.Pin `hw:"din"`
		DOut *boardsim.Pin `hw:"dout,optional"`
	}
	reg     [3]byte // reg[0] is the most recently received byte
	n       int
	pending bool
	color   color.RGBA
}

func makeWS2812(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	l := &WS2812{Base: b, color: color.RGBA{A: 0xff}}
	if err := b.BindPins(&l.pins); err != nil {
		return nil, err
	}
	return l, nil
}

// ShiftByte implements boardsim.ShiftSink.
//
func (l *WS2812) ShiftByte(din *boardsim.Pin, b byte) {
	if din != l.pins.DIn {
		return
	}
	if l.n == len(l.reg) {
		if l.pins.DOut != nil {
			shiftOut(l, l.pins.DOut, l.reg[2])
		}
		l.n--
	}
	copy(l.reg[1:], l.reg[:2])
	l.reg[0] = b
	l.n++
	l.pending = true
}

// Buffered returns the number of bytes held in the shift register.
//
func (l *WS2812) Buffered() int { return l.n }

// Tick implements boardsim.Ticker. It latches the shift register if bytes
// were received since the last tick.
//
func (l *WS2812) Tick() {
	if !l.pending {
		return
	}
	l.Latch()
}

// Latch commits the register content as the LED color and empties the
// register. Bytes arrive in G, R, B order, so after shifting reg holds
// B, R, G.
//
func (l *WS2812) Latch() {
	l.color = color.RGBA{R: l.reg[1], G: l.reg[2], B: l.reg[0], A: 0xff}
	l.reg = [3]byte{}
	l.n = 0
	l.pending = false
	l.Changed()
}

// Color returns the latched color.
//
func (l *WS2812) Color() color.RGBA { return l.color }

// DisplayColor returns the latched color with gamma correction applied.
//
func (l *WS2812) DisplayColor() color.RGBA {
	return color.RGBA{
		R: correct(l.color.R),
		G: correct(l.color.G),
		B: correct(l.color.B),
		A: 0xff,
	}
}

func correct(v uint8) uint8 {
	return uint8(math.Round(math.Pow(float64(v)/255, gamma) * 255))
}

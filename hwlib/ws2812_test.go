// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"image/color"
	"testing"

	"github.com/db47h/boardsim/hwlib"
	"github.com/db47h/boardsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWS2812_chain(t *testing.T) {
	s := hwtest.Schematic(t)
	l1 := hwtest.Add(t, s, "l1", "ws2812").(*hwlib.WS2812)
	l2 := hwtest.Add(t, s, "l2", "ws2812").(*hwlib.WS2812)
	s.Connect(l1.Pin("dout"), l2.Pin("din"))
	din := l1.Pin("din")

	for _, b := range []byte{0x10, 0x20, 0x30} {
		l1.ShiftByte(din, b)
	}
	assert.Equal(t, 3, l1.Buffered())
	assert.Zero(t, l2.Buffered())

	// the 4th byte pushes the first one out.
	l1.ShiftByte(din, 0x40)
	assert.Equal(t, 3, l1.Buffered())
	require.Equal(t, 1, l2.Buffered())
	l2.Latch()
	assert.Equal(t, color.RGBA{B: 0x10, A: 0xff}, l2.Color())

	for i := 0; i < 10; i++ {
		l1.ShiftByte(din, byte(i))
		assert.LessOrEqual(t, l1.Buffered(), 3)
	}

	// bytes shifted on the wrong pin are ignored.
	n := l2.Buffered()
	l2.ShiftByte(l2.Pin("dout"), 0xff)
	assert.Equal(t, n, l2.Buffered())
}

func TestWS2812_latch(t *testing.T) {
	s := hwtest.Schematic(t)
	l := hwtest.Add(t, s, "l", "ws2812").(*hwlib.WS2812)
	s.Tick()

	for _, b := range []byte{0x10, 0x20, 0x30} { // G, R, B
		l.ShiftByte(l.Pin("din"), b)
	}
	assert.Equal(t, color.RGBA{A: 0xff}, l.Color(), "not latched before tick")
	s.Tick()
	assert.Equal(t, color.RGBA{R: 0x20, G: 0x10, B: 0x30, A: 0xff}, l.Color())
	assert.Zero(t, l.Buffered())

	// nothing pending: the color stays.
	s.Tick()
	assert.Equal(t, color.RGBA{R: 0x20, G: 0x10, B: 0x30, A: 0xff}, l.Color())
}

func TestWS2812_DisplayColor(t *testing.T) {
	s := hwtest.Schematic(t)
	l := hwtest.Add(t, s, "l", "ws2812").(*hwlib.WS2812)
	for _, b := range []byte{0xff, 0x00, 0x10} {
		l.ShiftByte(l.Pin("din"), b)
	}
	l.Latch()
	assert.Equal(t, color.RGBA{R: 0, G: 0xff, B: 128, A: 0xff}, l.DisplayColor())
}

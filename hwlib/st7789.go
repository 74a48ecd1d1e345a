// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"github.com/db47h/boardsim"
	"github.com/pkg/errors"
)

// ST7789 commands.
//
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
)

// controller RAM size.
//
const (
	ramColumns = 240
	ramRows    = 320
)

type displayParams struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	ColumnOffset int `yaml:"columnOffset"`
	RowOffset    int `yaml:"rowOffset"`
}

// ST7789 decodes the byte protocol of an ST7789 SPI display controller and
// renders the panel in a frame buffer.
//
//	Pins: scl (clock), sda (data in), dc (data/command), cs (chip select, optional),
//	      reset (optional)
//	Params: width, height (panel size, default 240x320), columnOffset, rowOffset
//
// Transfers are ignored while cs is high or when the bus master's pins are not
// connected to scl and sda. With dc low, a byte is a command; with dc high it
// is a parameter of the current command. Unknown commands and malformed
// parameters are logged and ignored.
//
type ST7789 struct {
	*boardsim.Base
	pins struct {
		SCK   *boardsim.Pin `hw:"scl"`
		SDI   *boardsim.Pin `hw:"sda"`
		DC    *boardsim.Pin `hw:"dc"`
		CS    *boardsim.Pin `hw:"cs,optional"`
		Reset *boardsim.Pin `hw:"reset,optional"`
	}
	params displayParams
	log    *slog.Logger
	fb     *image.RGBA
	dirty  bool

	cmd      byte
	hasCmd   bool
	known    bool
	data     []byte
	xs, xe   int
	ys, ye   int
	x, y     int
	inverted bool
}

func makeST7789(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	d := &ST7789{Base: b, params: displayParams{Width: ramColumns, Height: ramRows}}
	if err := b.BindPins(&d.pins); err != nil {
		return nil, err
	}
	if err := b.Descriptor().DecodeParams(&d.params); err != nil {
		return nil, err
	}
	if d.params.Width <= 0 || d.params.Height <= 0 {
		return nil, errors.Errorf("invalid panel size %dx%d", d.params.Width, d.params.Height)
	}
	d.log = b.Logger()
	d.fb = image.NewRGBA(image.Rect(0, 0, d.params.Width, d.params.Height))
	d.reset()
	return d, nil
}

func (d *ST7789) reset() {
	d.xs, d.xe = 0, ramColumns-1
	d.ys, d.ye = 0, ramRows-1
	d.x, d.y = 0, 0
	d.inverted = false
	d.hasCmd = false
	d.data = d.data[:0]
	d.dirty = true
}

// TransferSPI implements boardsim.SPISlave.
//
func (d *ST7789) TransferSPI(sck, sdo, _ *boardsim.Pin, b byte) {
	if !d.pins.SCK.ConnectedTo(sck) || !d.pins.SDI.ConnectedTo(sdo) {
		return
	}
	if d.pins.CS != nil && d.pins.CS.IsHigh() {
		return
	}
	if d.pins.DC.IsHigh() {
		d.param(b)
	} else {
		d.command(b)
	}
}

// PinChanged implements boardsim.PinChangeHandler. Pulling reset low resets
// the controller.
//
func (d *ST7789) PinChanged(p *boardsim.Pin) {
	if p == d.pins.Reset && p.IsLow() {
		d.reset()
	}
}

func (d *ST7789) command(b byte) {
	d.truncated()
	d.cmd, d.hasCmd, d.known = b, true, true
	d.data = d.data[:0]
	switch b {
	case cmdSWRESET:
		d.reset()
	case cmdSLPOUT, cmdNORON, cmdDISPON:
	case cmdINVOFF:
		d.setInverted(false)
	case cmdINVON:
		d.setInverted(true)
	case cmdCASET, cmdRASET, cmdMADCTL, cmdCOLMOD:
	case cmdRAMWR:
		d.x, d.y = d.xs, d.ys
	default:
		d.known = false
		d.log.Warn("unknown display command", "cmd", b)
	}
}

// truncated logs the parameters of the current command left incomplete.
//
func (d *ST7789) truncated() {
	if !d.hasCmd || !d.known {
		return
	}
	n := len(d.data)
	switch d.cmd {
	case cmdCASET, cmdRASET:
		if n > 0 && n < 4 {
			d.log.Warn("incomplete parameters", "cmd", d.cmd, "len", n)
		}
	case cmdRAMWR:
		if n == 1 {
			d.log.Warn("incomplete parameters", "cmd", d.cmd, "len", n)
		}
	}
}

func (d *ST7789) param(b byte) {
	if !d.hasCmd {
		d.log.Warn("display data without command", "data", b)
		return
	}
	if !d.known {
		return
	}
	d.data = append(d.data, b)
	switch d.cmd {
	case cmdCASET, cmdRASET:
		switch n := len(d.data); {
		case n == 4:
			d.window()
		case n == 5:
			d.log.Warn("too many parameters", "cmd", d.cmd)
		}
	case cmdRAMWR:
		if len(d.data) == 2 {
			d.pixel(uint16(d.data[0])<<8 | uint16(d.data[1]))
			d.data = d.data[:0]
		}
	case cmdMADCTL, cmdCOLMOD:
		if len(d.data) == 2 {
			d.log.Warn("too many parameters", "cmd", d.cmd)
		}
	default:
		if len(d.data) == 1 {
			d.log.Warn("unexpected parameter", "cmd", d.cmd, "data", b)
		}
	}
}

func (d *ST7789) window() {
	start := int(d.data[0])<<8 | int(d.data[1])
	end := int(d.data[2])<<8 | int(d.data[3])
	if start > end {
		d.log.Warn("invalid address window", "cmd", d.cmd, "start", start, "end", end)
		return
	}
	if d.cmd == cmdCASET {
		d.xs, d.xe = start, end
		d.x = start
	} else {
		d.ys, d.ye = start, end
		d.y = start
	}
}

// pixel writes an RGB565 pixel at the cursor and advances it.
//
func (d *ST7789) pixel(v uint16) {
	r5, g6, b5 := uint8(v>>11), uint8(v>>5)&0x3f, uint8(v)&0x1f
	c := color.RGBA{
		R: r5<<3 | r5>>2,
		G: g6<<2 | g6>>4,
		B: b5<<3 | b5>>2,
		A: 0xff,
	}
	px, py := d.x-d.params.ColumnOffset, d.y-d.params.RowOffset
	if image.Pt(px, py).In(d.fb.Rect) {
		d.fb.SetRGBA(px, py, c)
		d.dirty = true
	}
	d.x++
	if d.x > d.xe {
		d.x = d.xs
		d.y++
		if d.y > d.ye {
			d.y = d.ys
		}
	}
}

func (d *ST7789) setInverted(inv bool) {
	if d.inverted != inv {
		d.inverted = inv
		d.dirty = true
	}
}

// Tick implements boardsim.Ticker. It reports accumulated display changes to
// the observer.
//
func (d *ST7789) Tick() {
	if d.dirty {
		d.dirty = false
		d.Changed()
	}
}

// Window returns the current address window, bounds included.
//
func (d *ST7789) Window() (xs, xe, ys, ye int) { return d.xs, d.xe, d.ys, d.ye }

// Cursor returns the RAM address of the next pixel write.
//
func (d *ST7789) Cursor() (x, y int) { return d.x, d.y }

// Inverted returns true if display inversion is on.
//
func (d *ST7789) Inverted() bool { return d.inverted }

// Pixel returns the displayed color at panel coordinates x, y.
//
func (d *ST7789) Pixel(x, y int) color.RGBA {
	c := d.fb.RGBAAt(x, y)
	if d.inverted {
		c.R, c.G, c.B = ^c.R, ^c.G, ^c.B
	}
	return c
}

// Image returns a snapshot of the displayed panel.
//
func (d *ST7789) Image() image.Image {
	img := image.NewRGBA(d.fb.Rect)
	copy(img.Pix, d.fb.Pix)
	if d.inverted {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = ^img.Pix[i], ^img.Pix[i+1], ^img.Pix[i+2]
		}
	}
	return img
}

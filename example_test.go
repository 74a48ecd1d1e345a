// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim_test

import (
	"context"
	"fmt"

	"github.com/db47h/boardsim"
)

// buzzer is a custom device that reports when its input goes high.
//
type buzzer struct {
	*boardsim.Base
	pins struct {
		In  *boardsim.Pin `hw:"in"`
		GND *boardsim.Pin `hw:"gnd,optional"`
	}
}

func (b *buzzer) PinChanged(p *boardsim.Pin) {
	if p == b.pins.In {
		fmt.Printf("%s: high=%v\n", b.Path(), p.IsHigh())
	}
}

// source is a device with a single output pin.
//
type source struct {
	*boardsim.Base
}

func Example() {
	reg := boardsim.NewRegistry()
	reg.Register("buzzer", func(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
		d := &buzzer{Base: b}
		return d, b.BindPins(&d.pins)
	})
	reg.Register("source", func(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
		return &source{b}, nil
	})
	err := reg.Parse([]byte(`
name: source
kind: source
pins: [{name: out, mode: output}]
---
name: buzzer
kind: buzzer
pins: [{name: in}]
`))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	s := boardsim.New(reg)
	src, _ := s.AddDevice(ctx, boardsim.Object{ID: "src", Device: "source"})
	bz, _ := s.AddDevice(ctx, boardsim.Object{ID: "bz", Device: "buzzer"})

	s.Connect(src.Pin("out"), bz.Pin("in"))
	src.Pin("out").Set(true)
	src.Pin("out").Set(false)

	// Output:
	// bz: high=false
	// bz: high=false
	// bz: high=true
	// bz: high=false
}

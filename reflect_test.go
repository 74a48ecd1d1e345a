// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim_test

import (
	"context"
	"testing"

	"github.com/db47h/boardsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	*boardsim.Base
	pins struct {
		Clk   *boardsim.Pin   `hw:""`
		Data  []*boardsim.Pin `hw:"d"`
		En    *boardsim.Pin   `hw:"enable,optional"`
		Spare []*boardsim.Pin `hw:"spare,optional"`
		other int
	}
}

func makeWidget(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	w := &widget{Base: b}
	if err := b.BindPins(&w.pins); err != nil {
		return nil, err
	}
	return w, nil
}

const widgets = `
name: widget
kind: widget
pins:
  - {name: clk}
  - {name: "d[0..3]"}
  - {name: enable}
---
name: small
kind: widget
pins:
  - {name: clk}
  - {name: "d[0]"}
---
name: broken
kind: widget
pins:
  - {name: "d[0..1]"}
`

func widgetSchematic(t *testing.T) *boardsim.Schematic {
	reg := boardsim.NewRegistry()
	reg.Register("widget", makeWidget)
	require.NoError(t, reg.Parse([]byte(widgets)))
	return boardsim.New(reg)
}

func TestBase_BindPins(t *testing.T) {
	s := widgetSchematic(t)
	ctx := context.Background()

	d, err := s.AddDevice(ctx, boardsim.Object{ID: "w", Device: "widget"})
	require.NoError(t, err)
	w := d.(*widget)
	assert.Equal(t, w.Pin("clk"), w.pins.Clk)
	require.Len(t, w.pins.Data, 4)
	for i, p := range w.pins.Data {
		assert.Equal(t, boardsim.BusPinName("d", i), p.Name())
		assert.Equal(t, d, p.Device())
	}
	assert.NotNil(t, w.pins.En)
	assert.Nil(t, w.pins.Spare)

	d, err = s.AddDevice(ctx, boardsim.Object{ID: "s", Device: "small"})
	require.NoError(t, err)
	w = d.(*widget)
	assert.Len(t, w.pins.Data, 1)
	assert.Nil(t, w.pins.En)

	_, err = s.AddDevice(ctx, boardsim.Object{ID: "b", Device: "broken"})
	assert.Error(t, err, "missing clk")
}

func TestBase_BindPins_badType(t *testing.T) {
	s := widgetSchematic(t)
	d, err := s.AddDevice(context.Background(), boardsim.Object{ID: "w", Device: "widget"})
	require.NoError(t, err)
	b := d.(*widget).Base

	var bad struct {
		Clk string `hw:"clk"`
	}
	assert.Panics(t, func() { b.BindPins(&bad) })
	assert.Panics(t, func() { b.BindPins(bad) })
}

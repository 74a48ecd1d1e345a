// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/db47h/boardsim"
	"github.com/db47h/boardsim/hwlib"
	"github.com/db47h/boardsim/hwtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchematic_AddDevice(t *testing.T) {
	s := hwtest.Schematic(t)
	ctx := context.Background()

	d, err := s.AddDevice(ctx, boardsim.Object{Device: "led"})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID())
	assert.Equal(t, d, s.Device(d.ID()))

	_, err = s.AddDevice(ctx, boardsim.Object{ID: d.ID(), Device: "led"})
	assert.Error(t, err)
	_, err = s.AddDevice(ctx, boardsim.Object{ID: "x", Device: "nope"})
	assert.Error(t, err)
	_, err = s.AddDevice(ctx, boardsim.Object{ID: "a/b", Device: "led"})
	assert.Error(t, err, "id with a path separator")
	assert.Nil(t, s.Device("a/b"))

	assert.Equal(t, "main", s.Root().ID())
	assert.Len(t, s.Devices(), 2)
	assert.Equal(t, "led", s.Find("main/led").Kind())
	assert.Nil(t, s.Find("main/nope"))
	assert.Nil(t, s.Find("main/mcu/deeper"))
}

func TestSchematic_RemoveDevice(t *testing.T) {
	s := hwtest.Schematic(t)
	keep := hwtest.Add(t, s, "keep", "probe").(*hwtest.Probe)
	gone := hwtest.Add(t, s, "gone", "probe")

	s.Connect(keep.MustPin("in[0]"), gone.Pin("in[0]"))
	s.Connect(keep.MustPin("in[1]"), gone.Pin("in[0]"))
	s.Connect(gone.Pin("in[1]"), keep.MustPin("in[0]"))
	s.Connect(keep.MustPin("in[2]"), hwtest.Pin(t, s, "main.D[0]"))
	keep.Clear()

	v := s.Env().Version()
	s.RemoveDevice(gone)

	// one notification per pin for the whole batch.
	assert.Equal(t, 1, keep.Calls("in[0]"))
	assert.Equal(t, 1, keep.Calls("in[1]"))
	assert.Zero(t, keep.Calls("in[2]"))
	assert.Zero(t, keep.Calls("in[3]"))
	// one bump per removed wire plus one for the device.
	assert.Equal(t, v+4, s.Env().Version())

	require.Len(t, s.Wires(), 1)
	assert.Nil(t, s.Device("gone"))
	assert.Empty(t, keep.MustPin("in[0]").Wires())
	assert.Len(t, keep.MustPin("in[0]").Connected(), 1)
}

func TestSchematic_RemoveDevice_nested(t *testing.T) {
	s := hwtest.Schematic(t)
	board := hwtest.Add(t, s, "b2", "board")
	pr := hwtest.Add(t, s, "probe", "probe").(*hwtest.Probe)
	s.Connect(pr.MustPin("in[0]"), hwtest.Pin(t, s, "b2/mcu.P[1]"))
	s.Connect(pr.MustPin("in[1]"), hwtest.Pin(t, s, "b2.D[2]"))
	pr.Clear()

	s.RemoveDevice(board)
	assert.Empty(t, s.Wires())
	assert.Equal(t, 1, pr.Calls("in[0]"))
	assert.Equal(t, 1, pr.Calls("in[1]"))
}

func TestSchematic_invariantViolations(t *testing.T) {
	s := hwtest.Schematic(t)
	other := hwtest.Schematic(t)
	pr := hwtest.Add(t, s, "probe", "probe")
	in0, in1 := pr.Pin("in[0]"), pr.Pin("in[1]")

	assert.Panics(t, func() { s.RemoveDevice(s.Root()) })
	assert.Panics(t, func() { s.RemoveDevice(other.Root()) })

	w := s.Connect(in0, in1)
	s.RemoveWire(w)
	assert.Panics(t, func() { s.RemoveWire(w) })

	w = s.AddWire(in0)
	assert.Panics(t, func() { s.Attach(w, in0) })
	s.Attach(w, in1)
	assert.Panics(t, func() { s.Attach(w, in1) })
	assert.Panics(t, func() { s.AddWire(nil) })
}

func TestSchematic_halfBuiltWire(t *testing.T) {
	s := hwtest.Schematic(t)
	pr := hwtest.Add(t, s, "probe", "probe").(*hwtest.Probe)
	d0 := hwtest.Pin(t, s, "main.D[0]")
	pr.Clear()

	w := s.AddWire(d0)
	assert.False(t, w.Active())
	assert.Nil(t, w.To())
	assert.False(t, d0.ConnectedTo(pr.MustPin("in[0]")))

	s.Attach(w, pr.MustPin("in[0]"))
	assert.True(t, w.Active())
	assert.True(t, d0.ConnectedTo(pr.MustPin("in[0]")))
	assert.Equal(t, 1, pr.Calls("in[0]"))
	assert.Equal(t, pr.MustPin("in[0]"), w.Other(d0))
	assert.Equal(t, "main.D[0]-probe.in[0]", w.String())
}

const testDocument = `{
  "objects": [
    {"id": "main", "device": "board", "x": 0, "y": 0},
    {"id": "p", "device": "probe", "x": 10, "y": 20, "rotation": 90},
    {"id": "red", "device": "led", "x": 4, "y": 2, "color": "green"},
    {"id": "ghost", "device": "flux-capacitor", "x": 1, "y": 1, "props": {"gw": 1.21}}
  ],
  "wires": [
    {"from": {"id": "main", "pin": "D[7]"}, "to": {"id": "p", "pin": "in[0]"}},
    {"from": {"id": "ghost", "pin": "x"}, "to": {"id": "p", "pin": "in[1]"}},
    {"from": {"id": "red", "pin": "anode"}, "to": {"id": "main/mcu", "pin": "P[1]"}}
  ]
}`

func TestSchematic_Load(t *testing.T) {
	doc, err := boardsim.ReadDocument(strings.NewReader(testDocument))
	require.NoError(t, err)

	s := boardsim.New(hwtest.Registry(t))
	require.NoError(t, s.Load(context.Background(), doc))

	assert.Len(t, s.Devices(), 3)
	assert.Nil(t, s.Device("ghost"))
	require.Len(t, s.Wires(), 3)
	assert.True(t, s.Wires()[0].Active())
	assert.False(t, s.Wires()[1].Active())
	assert.True(t, hwtest.Pin(t, s, "p.in[0]").ConnectedTo(hwtest.Pin(t, s, "main/led.anode")))
	assert.Len(t, hwtest.Pin(t, s, "p.in[1]").Connected(), 1)
	assert.Equal(t, "green", s.Device("red").Object().Color)

	// lossless round trip, unknown objects and inactive wires included.
	var buf bytes.Buffer
	require.NoError(t, s.Document().Encode(&buf))
	back, err := boardsim.ReadDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	assert.Error(t, s.Load(context.Background(), doc), "load into non-empty schematic")
}

func TestSchematic_Load_initialState(t *testing.T) {
	doc, err := boardsim.ReadDocument(strings.NewReader(testDocument))
	require.NoError(t, err)
	s := boardsim.New(hwtest.Registry(t))
	require.NoError(t, s.Load(context.Background(), doc))

	// anode floating through mcu.P[7], cathode tied to the driven low ground.
	led := s.Find("main/led").(*hwlib.LED)
	require.True(t, hwtest.Pin(t, s, "main/led.anode").IsFloating())
	require.True(t, hwtest.Pin(t, s, "main/led.cathode").IsLow())
	assert.True(t, led.On())

	// the same state reached through a pin toggle gives the same answer.
	p7 := hwtest.Pin(t, s, "main/mcu.P[7]")
	p7.SetMode(boardsim.Output)
	p7.SetMode(boardsim.Input)
	assert.True(t, led.On())

	// red has its anode wired to a floating pin and no cathode.
	assert.True(t, s.Device("red").(*hwlib.LED).On())
}

func TestSchematic_Load_invalidIDs(t *testing.T) {
	s := boardsim.New(hwtest.Registry(t))
	ctx := context.Background()
	for _, objs := range [][]boardsim.Object{
		{{ID: "main", Device: "board"}, {ID: "p", Device: "probe"}, {ID: "p", Device: "led"}},
		{{ID: "main", Device: "board"}, {ID: "x/y", Device: "probe"}},
	} {
		assert.Error(t, s.Load(ctx, &boardsim.Document{Objects: objs}))
		assert.Nil(t, s.Root())
		assert.Empty(t, s.Devices())
	}

	// a failed load leaves the schematic usable.
	require.NoError(t, s.Load(ctx, &boardsim.Document{Objects: []boardsim.Object{{ID: "main", Device: "board"}}}))
	assert.Equal(t, "main", s.Root().ID())
}

func TestSchematic_Load_badRoot(t *testing.T) {
	s := boardsim.New(hwtest.Registry(t))
	err := s.Load(context.Background(), &boardsim.Document{
		Objects: []boardsim.Object{{ID: "main", Device: "unknown"}},
	})
	assert.Error(t, err)
}

func TestSchematic_Tick(t *testing.T) {
	var changed []string
	s := hwtest.Schematic(t, boardsim.WithObserver(boardsim.ObserverFunc(func(d boardsim.Device) {
		changed = append(changed, d.Path())
	})))
	// the on-board LED lights up as soon as the board is built.
	assert.Equal(t, []string{"main/led"}, changed)
	hwtest.Add(t, s, "lcd", "st7789")
	changed = nil
	s.Tick()
	assert.Equal(t, []string{"lcd"}, changed)
	s.Tick()
	assert.Equal(t, []string{"lcd"}, changed)
	assert.NoError(t, s.Close())
}

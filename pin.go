// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// Mode is the direction of a pin.
//
type Mode uint8

// Pin modes.
//
const (
	Input Mode = iota
	Output
)

func (m Mode) String() string {
	if m == Output {
		return "output"
	}
	return "input"
}

// MarshalText implements encoding.TextMarshaler.
//
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "input", "in":
		*m = Input
	case "output", "out":
		*m = Output
	default:
		return errors.Errorf("invalid pin mode %q", b)
	}
	return nil
}

// A Pin is an electrical terminal of a device.
//
// A pin belongs to exactly one on-board group: the set of pins tied to it
// inside its board, itself included. Groups are merged with Join when a
// composite device is loaded and never split afterwards.
//
type Pin struct {
	env   *Env
	dev   Device
	index int
	spec  PinSpec
	mode  Mode
	high  bool
	group *group
	wires []*Wire

	// connectivity cache, valid while netVersion == env.version.
	net        []*Pin
	netVersion uint64
}

type group struct {
	pins []*Pin
}

func newPin(env *Env, index int, spec PinSpec) *Pin {
	p := &Pin{env: env, index: index, spec: spec, mode: spec.Mode}
	p.group = &group{pins: []*Pin{p}}
	return p
}

// Device returns the device owning p.
//
func (p *Pin) Device() Device { return p.dev }

// Name returns the pin name. Board-internal pins may have no name.
//
func (p *Pin) Name() string { return p.spec.Name }

// Index returns the position of p in its device's pin list.
//
func (p *Pin) Index() int { return p.index }

// Spec returns the descriptor entry p was created from.
//
func (p *Pin) Spec() PinSpec { return p.spec }

// Mode returns the pin mode.
//
func (p *Pin) Mode() Mode { return p.mode }

// Level returns the level p drives. It is only meaningful in Output mode.
//
func (p *Pin) Level() bool { return p.high }

// Group returns the pins of p's on-board group.
//
func (p *Pin) Group() []*Pin { return p.group.pins }

// Wires returns the wires attached to p.
//
func (p *Pin) Wires() []*Wire { return p.wires }

func (p *Pin) String() string {
	name := p.spec.Name
	if name == "" {
		name = "#" + strconv.Itoa(p.index)
	}
	if p.dev == nil {
		return name
	}
	return p.dev.Path() + "." + name
}

// Join ties a and b together in the same on-board group.
// It panics if a and b do not share the same Env.
//
func Join(a, b *Pin) {
	if a.env != b.env {
		panic("boardsim: Join: pins " + a.String() + " and " + b.String() + " belong to different environments")
	}
	if a.group == b.group {
		return
	}
	ga, gb := a.group, b.group
	if len(ga.pins) < len(gb.pins) {
		ga, gb = gb, ga
	}
	for _, q := range gb.pins {
		q.group = ga
	}
	ga.pins = append(ga.pins, gb.pins...)
	a.env.Invalidate()
}

// Connected returns every pin reachable from p through on-board groups and
// active wires, p included. The returned slice must not be modified.
//
func (p *Pin) Connected() []*Pin {
	if p.net != nil && p.netVersion == p.env.version {
		return p.net
	}

	seen := make(map[*Pin]struct{}, len(p.group.pins))
	visited := make(map[*Wire]struct{})
	net := make([]*Pin, 0, len(p.group.pins))
	add := func(g *group) {
		for _, q := range g.pins {
			if _, ok := seen[q]; !ok {
				seen[q] = struct{}{}
				net = append(net, q)
			}
		}
	}

	add(p.group)
	for i := 0; i < len(net); i++ {
		for _, w := range net[i].wires {
			if _, ok := visited[w]; ok {
				continue
			}
			visited[w] = struct{}{}
			if !w.Active() {
				continue
			}
			add(w.from.group)
			add(w.to.group)
		}
	}

	// connectivity is symmetric: the same set is valid for every member.
	v := p.env.version
	for _, q := range net {
		q.net, q.netVersion = net, v
	}
	return net
}

// ConnectedTo returns true if q is in p's connected set.
//
func (p *Pin) ConnectedTo(q *Pin) bool {
	for _, c := range p.Connected() {
		if c == q {
			return true
		}
	}
	return false
}

// IsWired returns true if p is connected to at least one other pin.
//
func (p *Pin) IsWired() bool { return len(p.Connected()) > 1 }

// driver returns the first output pin in p's connected set, nil if p is floating.
//
func (p *Pin) driver() *Pin {
	for _, q := range p.Connected() {
		if q.mode == Output {
			return q
		}
	}
	return nil
}

// IsHigh returns true if p's net is driven high.
//
// The first output found in the connected set determines the level.
// Conflicting drivers are not detected.
//
func (p *Pin) IsHigh() bool {
	d := p.driver()
	return d != nil && d.high
}

// IsLow returns true if p's net is driven low.
//
func (p *Pin) IsLow() bool {
	d := p.driver()
	return d != nil && !d.high
}

// IsFloating returns true if nothing drives p's net.
//
func (p *Pin) IsFloating() bool { return p.driver() == nil }

// Set sets the level driven by p and notifies every device connected to it.
//
func (p *Pin) Set(high bool) {
	if p.high == high {
		return
	}
	p.high = high
	p.env.notifyNets(p)
}

// SetMode sets the mode of p and notifies every device connected to it.
//
func (p *Pin) SetMode(m Mode) {
	if p.mode == m {
		return
	}
	p.mode = m
	p.env.notifyNets(p)
}

// Reset restores pins to their power-on state (descriptor mode, low level),
// then notifies every connected device once.
//
func Reset(pins ...*Pin) {
	if len(pins) == 0 {
		return
	}
	var changed []*Pin
	for _, p := range pins {
		if p.mode != p.spec.Mode || p.high {
			p.mode, p.high = p.spec.Mode, false
			changed = append(changed, p)
		}
	}
	if len(changed) > 0 {
		changed[0].env.notifyNets(changed...)
	}
}

func (p *Pin) attach(w *Wire) {
	p.wires = append(p.wires, w)
}

func (p *Pin) detach(w *Wire) {
	for i, x := range p.wires {
		if x == w {
			copy(p.wires[i:], p.wires[i+1:])
			p.wires[len(p.wires)-1] = nil
			p.wires = p.wires[:len(p.wires)-1]
			return
		}
	}
}

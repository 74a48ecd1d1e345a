// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"log/slog"
)

// A Device is a component placed in a schematic. All devices embed a *Base,
// which provides the pin list and identity.
//
// Devices opt into behavior by implementing capability interfaces:
// PinChangeHandler, SPISlave, ShiftSink, Ticker and io.Closer.
//
type Device interface {
	// ID returns the device id, unique among its siblings.
	ID() string
	// Path returns the id path of the device from the schematic root, ids
	// of nested devices being separated by '/'.
	Path() string
	// Kind returns the variant tag of the device.
	Kind() string
	// Descriptor returns the static layout the device was built from.
	Descriptor() *Descriptor
	// Object returns the instance properties of the device.
	Object() *Object
	// Pins returns the ordered pin list.
	Pins() []*Pin
	// Pin returns the pin with the given name or nil.
	Pin(name string) *Pin
	// Parent returns the composite device containing this device, if any.
	Parent() Device

	base() *Base
}

// PinChangeHandler is implemented by devices that react to level or mode
// changes on their pins. PinChanged is called with the device's own pin whose
// net changed.
//
type PinChangeHandler interface {
	PinChanged(p *Pin)
}

// SPISlave is implemented by devices accepting SPI transfers. sck, sdo and sdi
// are the bus master's clock, data out and data in pins (sdi may be nil). The
// slave must check that its own bus pins are connected to them.
//
type SPISlave interface {
	TransferSPI(sck, sdo, sdi *Pin, b byte)
}

// ShiftSink is implemented by shift register devices fed one byte at a time
// (addressable LEDs). din is the device's own pin the byte arrived on.
//
type ShiftSink interface {
	ShiftByte(din *Pin, b byte)
}

// Ticker is implemented by devices that commit deferred state on every host
// refresh (see Schematic.Tick).
//
type Ticker interface {
	Tick()
}

// Base holds the state common to all devices.
//
type Base struct {
	env    *Env
	self   Device
	parent Device
	reg    *Registry
	desc   *Descriptor
	obj    Object
	pins   []*Pin
	byName map[string]*Pin
}

func newBase(env *Env, reg *Registry, parent Device, desc *Descriptor, obj Object) *Base {
	b := &Base{
		env:    env,
		parent: parent,
		reg:    reg,
		desc:   desc,
		obj:    obj,
		pins:   make([]*Pin, len(desc.Pins)),
		byName: make(map[string]*Pin, len(desc.Pins)),
	}
	for i, ps := range desc.Pins {
		p := newPin(env, i, ps)
		b.pins[i] = p
		if ps.Name != "" {
			b.byName[ps.Name] = p
		}
	}
	return b
}

// bind sets d as the owner of all pins.
//
func (b *Base) bind(d Device) {
	b.self = d
	for _, p := range b.pins {
		p.dev = d
	}
}

func (b *Base) base() *Base { return b }

// ID returns the device id.
//
func (b *Base) ID() string { return b.obj.ID }

// Path returns the id path of the device.
//
func (b *Base) Path() string {
	if b.parent == nil {
		return b.obj.ID
	}
	return b.parent.Path() + "/" + b.obj.ID
}

// Kind returns the device variant.
//
func (b *Base) Kind() string { return b.desc.Kind }

// Descriptor returns the device descriptor.
//
func (b *Base) Descriptor() *Descriptor { return b.desc }

// Object returns the device instance properties.
//
func (b *Base) Object() *Object { return &b.obj }

// Pins returns the pin list.
//
func (b *Base) Pins() []*Pin { return b.pins }

// Pin returns the named pin or nil.
//
func (b *Base) Pin(name string) *Pin { return b.byName[name] }

// MustPin returns the named pin. It panics if no such pin exists.
//
func (b *Base) MustPin(name string) *Pin {
	p, ok := b.byName[name]
	if !ok {
		panic("pin " + name + " does not exist on " + b.desc.Name)
	}
	return p
}

// Parent returns the containing device.
//
func (b *Base) Parent() Device { return b.parent }

// Env returns the device's environment.
//
func (b *Base) Env() *Env { return b.env }

// Logger returns the environment logger annotated with the device path.
//
func (b *Base) Logger() *slog.Logger {
	return b.env.log.With("device", b.Path())
}

// Changed reports a change of the device's visible state to the observer.
//
func (b *Base) Changed() {
	b.env.changed(b.self)
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// A Schematic owns the devices and wires of one document.
//
// The first device added is the root board. It cannot be removed.
//
// Objects of a loaded document that could not be instantiated are kept
// aside and written back by Document, so that a document round-trips even
// when some devices are unknown to the registry.
//
type Schematic struct {
	env     *Env
	reg     *Registry
	objects []placed
	wires   []*Wire
}

// placed is an entry of the ordered object list. dev is nil for objects that
// failed to build.
//
type placed struct {
	dev Device
	obj Object
}

// New returns an empty schematic building its devices from reg.
//
func New(reg *Registry, opts ...Option) *Schematic {
	return &Schematic{env: NewEnv(opts...), reg: reg}
}

// Env returns the schematic's environment.
//
func (s *Schematic) Env() *Env { return s.env }

// Registry returns the registry devices are built from.
//
func (s *Schematic) Registry() *Registry { return s.reg }

// Root returns the root device or nil if the schematic is empty.
//
func (s *Schematic) Root() Device {
	if len(s.objects) == 0 {
		return nil
	}
	return s.objects[0].dev
}

// Devices returns the top level devices in document order.
//
func (s *Schematic) Devices() []Device {
	ds := make([]Device, 0, len(s.objects))
	for _, o := range s.objects {
		if o.dev != nil {
			ds = append(ds, o.dev)
		}
	}
	return ds
}

// Device returns the top level device with the given id or nil.
//
func (s *Schematic) Device(id string) Device {
	if i := s.indexOf(id); i >= 0 {
		return s.objects[i].dev
	}
	return nil
}

// Find returns the device at path, nested ids being separated by '/'.
//
func (s *Schematic) Find(path string) Device {
	id, rest := path, ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		id, rest = path[:i], path[i+1:]
	}
	d := s.Device(id)
	if d == nil || rest == "" {
		return d
	}
	c, ok := d.(*Composite)
	if !ok {
		return nil
	}
	return c.Find(rest)
}

// Pin resolves a pin reference. It returns nil if the object or pin does not
// exist.
//
func (s *Schematic) Pin(ref PinRef) *Pin {
	d := s.Find(ref.Object)
	if d == nil || ref.Pin == "" {
		return nil
	}
	return d.Pin(ref.Pin)
}

// Wires returns all wires, active or not.
//
func (s *Schematic) Wires() []*Wire { return s.wires }

func (s *Schematic) indexOf(id string) int {
	for i := range s.objects {
		if s.objects[i].obj.ID == id {
			return i
		}
	}
	return -1
}

func (s *Schematic) indexOfDevice(d Device) int {
	for i := range s.objects {
		if s.objects[i].dev == d {
			return i
		}
	}
	return -1
}

// AddDevice instantiates obj and appends it to the schematic. An id is
// generated if obj.ID is empty. Ids must be unique and must not contain a '/'.
// The pins of the new device are notified once so that it starts in a state
// consistent with its connections.
//
func (s *Schematic) AddDevice(ctx context.Context, obj Object) (Device, error) {
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	if err := checkID(obj.ID); err != nil {
		return nil, err
	}
	if s.indexOf(obj.ID) >= 0 {
		return nil, errors.Errorf("duplicate object id %q", obj.ID)
	}
	d, err := s.reg.build(ctx, s.env, nil, obj)
	if err != nil {
		return nil, err
	}
	s.objects = append(s.objects, placed{dev: d, obj: obj})
	s.env.Invalidate()
	s.env.notifyNets(pinsOf(d)...)
	return d, nil
}

// checkID checks that id can be used in a device path.
//
func checkID(id string) error {
	if strings.ContainsRune(id, '/') {
		return errors.Errorf("invalid object id %q: contains '/'", id)
	}
	return nil
}

// pinsOf returns the pins of d and of every device nested in it.
//
func pinsOf(d Device) []*Pin {
	var pins []*Pin
	Walk(d, func(d Device) { pins = append(pins, d.Pins()...) })
	return pins
}

// RemoveDevice removes d along with every wire attached to it or to any
// device nested in it. Pins that lost a wire are notified once, after all
// wires have been removed. Devices implementing io.Closer are closed.
//
// RemoveDevice panics if d is the root device or is not part of s.
//
func (s *Schematic) RemoveDevice(d Device) {
	i := s.indexOfDevice(d)
	switch {
	case i < 0:
		panic("boardsim: RemoveDevice: device " + d.Path() + " not in schematic")
	case i == 0:
		panic("boardsim: RemoveDevice: cannot remove root device " + d.Path())
	}

	owned := make(map[*Pin]struct{})
	Walk(d, func(d Device) {
		for _, p := range d.Pins() {
			owned[p] = struct{}{}
		}
	})
	var lost []*Pin
	keep := func(p *Pin) {
		if p == nil {
			return
		}
		if _, ok := owned[p]; !ok {
			lost = append(lost, p)
		}
	}
	for _, w := range append([]*Wire(nil), s.wires...) {
		_, from := owned[w.from]
		_, to := owned[w.to]
		if from || to {
			s.detach(w)
			keep(w.from)
			keep(w.to)
		}
	}

	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.env.Invalidate()
	Walk(d, func(d Device) {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.env.log.Warn("device close failed", "device", d.Path(), "err", err)
			}
		}
	})
	s.env.notifyNets(lost...)
}

// AddWire starts a new wire from pin from. The wire stays inactive until its
// other end is set with Attach.
//
func (s *Schematic) AddWire(from *Pin) *Wire {
	s.checkPin(from)
	w := &Wire{from: from}
	from.attach(w)
	s.wires = append(s.wires, w)
	s.env.Invalidate()
	return w
}

// Attach sets the "to" pin of a wire created with AddWire and notifies both
// endpoints.
//
// Attach panics if w is not part of s, is already attached, or if to is the
// wire's "from" pin.
//
func (s *Schematic) Attach(w *Wire, to *Pin) {
	s.checkPin(to)
	if s.wireIndex(w) < 0 {
		panic("boardsim: Attach: wire not in schematic")
	}
	if w.to != nil {
		panic("boardsim: Attach: wire " + w.String() + " already attached")
	}
	if w.from == to {
		panic("boardsim: Attach: wire endpoints must be distinct pins")
	}
	w.to = to
	to.attach(w)
	s.env.Invalidate()
	s.env.notifyNets(w.from, to)
}

// Connect adds a wire between from and to.
//
func (s *Schematic) Connect(from, to *Pin) *Wire {
	w := s.AddWire(from)
	s.Attach(w, to)
	return w
}

// RemoveWire removes w and notifies its former endpoints.
// It panics if w is not part of s.
//
func (s *Schematic) RemoveWire(w *Wire) {
	if s.wireIndex(w) < 0 {
		panic("boardsim: RemoveWire: wire " + w.String() + " not in schematic")
	}
	s.detach(w)
	var ends []*Pin
	for _, p := range []*Pin{w.from, w.to} {
		if p != nil {
			ends = append(ends, p)
		}
	}
	s.env.notifyNets(ends...)
}

func (s *Schematic) wireIndex(w *Wire) int {
	for i, x := range s.wires {
		if x == w {
			return i
		}
	}
	return -1
}

// detach removes w from the wire list and from its endpoints. It keeps the
// endpoint references in w so that callers can notify them.
//
func (s *Schematic) detach(w *Wire) {
	i := s.wireIndex(w)
	copy(s.wires[i:], s.wires[i+1:])
	s.wires[len(s.wires)-1] = nil
	s.wires = s.wires[:len(s.wires)-1]
	if w.from != nil {
		w.from.detach(w)
	}
	if w.to != nil {
		w.to.detach(w)
	}
	s.env.Invalidate()
}

func (s *Schematic) checkPin(p *Pin) {
	if p == nil {
		panic("boardsim: nil pin")
	}
	if p.env != s.env {
		panic("boardsim: pin " + p.String() + " belongs to another schematic")
	}
}

// Tick is called by the host at its refresh cadence. It ticks every device
// implementing Ticker, in document order, parents before children.
//
func (s *Schematic) Tick() {
	for _, d := range s.Devices() {
		Walk(d, func(d Device) {
			if t, ok := d.(Ticker); ok {
				t.Tick()
			}
		})
	}
}

// Close closes every device implementing io.Closer and returns the first
// error encountered.
//
func (s *Schematic) Close() error {
	var first error
	for _, d := range s.Devices() {
		Walk(d, func(d Device) {
			if c, ok := d.(io.Closer); ok {
				if err := c.Close(); err != nil && first == nil {
					first = errors.Wrap(err, d.Path())
				}
			}
		})
	}
	return first
}

// Load populates an empty schematic from doc.
//
// The first object becomes the root device and must build successfully.
// Other objects that fail to build are logged and kept aside. Wires whose
// endpoints cannot be resolved are logged and loaded inactive. Object ids
// are checked before anything is built, so that an invalid document leaves
// the schematic empty. Once loaded, every pin is notified once.
//
func (s *Schematic) Load(ctx context.Context, doc *Document) error {
	if len(s.objects) > 0 || len(s.wires) > 0 {
		return errors.New("schematic is not empty")
	}
	objs := make([]Object, len(doc.Objects))
	ids := make(map[string]struct{}, len(doc.Objects))
	for i, obj := range doc.Objects {
		if obj.ID == "" {
			obj.ID = uuid.NewString()
		}
		if err := checkID(obj.ID); err != nil {
			return err
		}
		if _, dup := ids[obj.ID]; dup {
			return errors.Errorf("duplicate object id %q", obj.ID)
		}
		ids[obj.ID] = struct{}{}
		objs[i] = obj
	}

	for i, obj := range objs {
		d, err := s.reg.build(ctx, s.env, nil, obj)
		if err != nil {
			if i == 0 {
				return errors.Wrap(err, "failed to load root device")
			}
			s.env.log.Warn("object not loaded", "id", obj.ID, "device", obj.Device, "err", err)
		}
		s.objects = append(s.objects, placed{dev: d, obj: obj})
	}

	for _, wr := range doc.Wires {
		w := &Wire{from: s.Pin(wr.From), to: s.Pin(wr.To), fromRef: wr.From, toRef: wr.To}
		if !w.Active() {
			s.env.log.Warn("inactive wire", "from", wr.From.String(), "to", wr.To.String())
		}
		if w.from != nil {
			w.from.attach(w)
		}
		if w.to != nil && w.to != w.from {
			w.to.attach(w)
		}
		s.wires = append(s.wires, w)
	}
	s.env.Invalidate()

	var pins []*Pin
	for _, d := range s.Devices() {
		pins = append(pins, pinsOf(d)...)
	}
	s.env.notifyNets(pins...)
	return nil
}

// Document returns the persisted form of the schematic.
//
func (s *Schematic) Document() *Document {
	doc := &Document{
		Objects: make([]Object, 0, len(s.objects)),
		Wires:   make([]WireRefs, 0, len(s.wires)),
	}
	for _, o := range s.objects {
		if o.dev != nil {
			doc.Objects = append(doc.Objects, *o.dev.Object())
		} else {
			doc.Objects = append(doc.Objects, o.obj)
		}
	}
	for _, w := range s.wires {
		from, to := w.Refs()
		doc.Wires = append(doc.Wires, WireRefs{From: from, To: to})
	}
	return doc
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// KindComposite is the descriptor kind of boards assembled from sub-devices.
//
const KindComposite = "composite"

// Composite is a device assembled from child devices. Each of its own pins is
// tied, through its on-board group, to the child pins listed in the
// descriptor's connection map.
//
type Composite struct {
	*Base
	children []Device
	byID     map[string]Device
	loaded   bool
}

func makeComposite(ctx context.Context, b *Base) (Device, error) {
	c := &Composite{Base: b, byID: make(map[string]Device, len(b.desc.Objects))}
	b.bind(c)

	for _, o := range b.desc.Objects {
		child, err := b.reg.build(ctx, b.env, c, o)
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, child)
		c.byID[o.ID] = child
	}

	for i, ps := range b.desc.Pins {
		p := b.pins[i]
		for _, conn := range ps.Connect {
			ref, err := ParsePinRef(conn)
			if err != nil {
				return nil, errors.Wrap(err, "pin "+p.String())
			}
			q := c.lookup(ref)
			if q == nil {
				return nil, errors.Errorf("pin %s: no such child pin %s", p, conn)
			}
			Join(p, q)
		}
	}

	if bg := b.desc.Background; bg != "" {
		if err := b.env.assets.Load(ctx, bg); err != nil {
			// pin hit-testing against the asset is undefined until it loads.
			b.Logger().Warn("background asset not loaded", "asset", bg, "err", err)
			return c, nil
		}
	}
	c.loaded = true
	return c, nil
}

// Children returns the child devices.
//
func (c *Composite) Children() []Device { return c.children }

// Child returns the child device with the given id or nil.
//
func (c *Composite) Child(id string) Device { return c.byID[id] }

// Loaded returns true once the composite and its background asset, if any,
// are loaded.
//
func (c *Composite) Loaded() bool { return c.loaded }

// lookup resolves a pin reference relative to c. The object part may be a
// '/' separated path of nested children.
//
func (c *Composite) lookup(ref PinRef) *Pin {
	d := c.Find(ref.Object)
	if d == nil {
		return nil
	}
	return d.Pin(ref.Pin)
}

// Find returns the descendant device at path, ids being separated by '/'.
//
func (c *Composite) Find(path string) Device {
	var d Device = c
	for _, id := range strings.Split(path, "/") {
		cc, ok := d.(*Composite)
		if !ok {
			return nil
		}
		if d = cc.byID[id]; d == nil {
			return nil
		}
	}
	return d
}

// Walk calls fn for d and every device nested in it, parents first.
//
func Walk(d Device, fn func(d Device)) {
	fn(d)
	if c, ok := d.(*Composite); ok {
		for _, child := range c.children {
			Walk(child, fn)
		}
	}
}

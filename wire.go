// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"strings"

	"github.com/pkg/errors"
)

// A PinRef names a pin in a schematic document: the path of the object
// owning it and the pin name. Paths of objects nested in composite devices are
// built by joining ids with a '/'.
//
type PinRef struct {
	Object string `json:"id" yaml:"id"`
	Pin    string `json:"pin" yaml:"pin"`
}

func (r PinRef) String() string { return r.Object + "." + r.Pin }

// ParsePinRef parses a pin reference of the form "object.pin".
//
func ParsePinRef(s string) (PinRef, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return PinRef{}, errors.Errorf("invalid pin reference %q", s)
	}
	return PinRef{Object: s[:i], Pin: s[i+1:]}, nil
}

// A Wire connects two pins.
//
// A wire is active when both endpoints are resolved and distinct. Inactive
// wires exist while a wire is being drawn (no "to" pin yet) or when a
// document references a pin that does not exist; they keep their document
// references and are ignored by connectivity.
//
type Wire struct {
	from, to       *Pin
	fromRef, toRef PinRef
}

// From returns the "from" pin. It may be nil for a wire loaded from a
// document whose endpoint could not be resolved.
//
func (w *Wire) From() *Pin { return w.from }

// To returns the "to" pin. It is nil until the wire is attached.
//
func (w *Wire) To() *Pin { return w.to }

// Active returns true if w takes part in connectivity.
//
func (w *Wire) Active() bool {
	return w.from != nil && w.to != nil && w.from != w.to
}

// Refs returns the document references of both endpoints.
//
func (w *Wire) Refs() (from, to PinRef) {
	from, to = w.fromRef, w.toRef
	if w.from != nil {
		from = refOf(w.from)
	}
	if w.to != nil {
		to = refOf(w.to)
	}
	return from, to
}

func (w *Wire) String() string {
	from, to := w.Refs()
	return from.String() + "-" + to.String()
}

// Other returns the endpoint of w opposite to p.
//
func (w *Wire) Other(p *Pin) *Pin {
	if w.from == p {
		return w.to
	}
	return w.from
}

func refOf(p *Pin) PinRef {
	return PinRef{Object: p.dev.Path(), Pin: p.spec.Name}
}

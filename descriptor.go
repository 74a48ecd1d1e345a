// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// A Descriptor is the static physical and electrical layout of a device type.
// Descriptors are usually loaded from YAML (or JSON) files:
//
//	name: led
//	kind: led
//	width: 5
//	height: 12
//	pins:
//	  - {name: anode, x: 1, y: 12}
//	  - {name: cathode, x: 4, y: 12}
//
// Pin names may be bus ranges, "D[0..7]", expanded into one pin per index.
// Each expanded pin is offset by (dx, dy) from the previous one.
//
// Composite devices list child objects and, for each board pin, the child
// pins it is tied to:
//
//	name: nano
//	kind: composite
//	objects:
//	  - {id: mcu, device: atmega328p}
//	  - {id: led, device: led, x: 10, y: 4}
//	pins:
//	  - {name: "D[0..7]", x: 2, dx: 2.54, connect: ["mcu.PD[0..7]"]}
//	  - {name: D13, x: 30, connect: [mcu.PB5, led.anode]}
//	  - {connect: [mcu.GND, led.cathode]} # board-internal pin
//
// Variant specific settings go in params and are decoded by the device with
// DecodeParams.
//
type Descriptor struct {
	Name       string    `yaml:"name"`
	Kind       string    `yaml:"kind"`
	Width      float64   `yaml:"width,omitempty"`
	Height     float64   `yaml:"height,omitempty"`
	Background string    `yaml:"background,omitempty"`
	Pins       []PinSpec `yaml:"pins,omitempty"`
	Objects    []Object  `yaml:"objects,omitempty"`
	Params     yaml.Node `yaml:"params,omitempty"`
}

// PinSpec describes one pin of a descriptor.
//
type PinSpec struct {
	Name    string   `yaml:"name,omitempty"`
	Mode    Mode     `yaml:"mode,omitempty"`
	X       float64  `yaml:"x,omitempty"`
	Y       float64  `yaml:"y,omitempty"`
	DX      float64  `yaml:"dx,omitempty"`
	DY      float64  `yaml:"dy,omitempty"`
	Element string   `yaml:"element,omitempty"`
	Connect []string `yaml:"connect,omitempty"`
}

// DecodeParams decodes the variant specific params into v. Fields of v
// absent from the descriptor are left untouched.
//
func (d *Descriptor) DecodeParams(v interface{}) error {
	if d.Params.Kind == 0 {
		return nil
	}
	return errors.Wrap(d.Params.Decode(v), d.Name+": params")
}

// expand expands bus ranges in pin names and connection lists and checks
// that pin names are unique.
//
func (d *Descriptor) expand() error {
	var pins []PinSpec
	names := make(map[string]struct{}, len(d.Pins))
	for _, ps := range d.Pins {
		ks, err := ExpandRange(ps.Name)
		if err != nil {
			return errors.Wrap(err, "pin "+ps.Name)
		}
		conns, err := expandConnections(ps.Name, ps.Connect)
		if err != nil {
			return err
		}
		for i, k := range ks {
			if k != "" {
				if _, dup := names[k]; dup {
					return errors.New("duplicate pin name " + k)
				}
				names[k] = struct{}{}
			}
			p := ps
			p.Name = k
			p.X += float64(i) * ps.DX
			p.Y += float64(i) * ps.DY
			p.DX, p.DY = 0, 0
			p.Connect = conns[k]
			pins = append(pins, p)
		}
	}
	d.Pins = pins

	ids := make(map[string]struct{}, len(d.Objects))
	for _, o := range d.Objects {
		if o.ID == "" || o.Device == "" {
			return errors.New("child object without id or device")
		}
		if strings.ContainsRune(o.ID, '/') {
			return errors.New("invalid child id " + o.ID)
		}
		if _, dup := ids[o.ID]; dup {
			return errors.New("duplicate child id " + o.ID)
		}
		ids[o.ID] = struct{}{}
	}
	return nil
}

// A MakeFunc builds the device variant for a descriptor kind around b.
// The returned device must embed b.
//
type MakeFunc func(ctx context.Context, b *Base) (Device, error)

// A Registry maps device names to descriptors and descriptor kinds to the
// functions building them.
//
type Registry struct {
	kinds map[string]MakeFunc
	descs map[string]*Descriptor
}

// NewRegistry returns a new registry knowing only the composite kind.
//
func NewRegistry() *Registry {
	r := &Registry{
		kinds: make(map[string]MakeFunc),
		descs: make(map[string]*Descriptor),
	}
	r.Register(KindComposite, makeComposite)
	return r
}

// Register registers fn as the builder of kind. It panics if kind is already
// registered.
//
func (r *Registry) Register(kind string, fn MakeFunc) {
	if _, ok := r.kinds[kind]; ok {
		panic("device kind " + kind + " already registered")
	}
	r.kinds[kind] = fn
}

// Add adds a descriptor, replacing any previous descriptor with the same name.
//
func (r *Registry) Add(d *Descriptor) error {
	if d.Name == "" {
		return errors.New("descriptor without name")
	}
	if d.Kind == "" {
		return errors.New("descriptor " + d.Name + " without kind")
	}
	if err := d.expand(); err != nil {
		return errors.Wrap(err, "descriptor "+d.Name)
	}
	r.descs[d.Name] = d
	return nil
}

// Parse parses a stream of YAML documents, one descriptor each, and adds them
// to the registry.
//
func (r *Registry) Parse(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		d := new(Descriptor)
		err := dec.Decode(d)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to parse descriptor")
		}
		if err = r.Add(d); err != nil {
			return err
		}
	}
}

// LoadFS loads every .yaml, .yml and .json file found in fsys.
//
func (r *Registry) LoadFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(name string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch path.Ext(name) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}
		if de.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		return errors.Wrap(r.Parse(data), name)
	})
}

// Lookup returns the named descriptor or nil.
//
func (r *Registry) Lookup(name string) *Descriptor { return r.descs[name] }

// Names returns the sorted descriptor names.
//
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descs))
	for n := range r.descs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// build instantiates the device described by obj.
//
func (r *Registry) build(ctx context.Context, env *Env, parent Device, obj Object) (Device, error) {
	desc := r.descs[obj.Device]
	if desc == nil {
		return nil, errors.Errorf("%s: unknown device %q", obj.ID, obj.Device)
	}
	fn := r.kinds[desc.Kind]
	if fn == nil {
		return nil, errors.Errorf("%s: unknown device kind %q", obj.ID, desc.Kind)
	}
	b := newBase(env, r, parent, desc, obj)
	d, err := fn(ctx, b)
	if err != nil {
		return nil, errors.Wrap(err, obj.ID)
	}
	if d.base() != b {
		panic("device kind " + desc.Kind + " does not embed its Base")
	}
	b.bind(d)
	return d, nil
}

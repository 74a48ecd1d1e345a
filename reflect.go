// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

var (
	pinType = reflect.TypeOf((*Pin)(nil))
	busType = reflect.TypeOf([]*Pin(nil))
)

// BindPins assigns the device pins to the fields of the struct pointed to by v.
// Pin fields are identified by field tags.
//
// The field tag must be `hw:""` or `hw:"pin_name"`. By default, the pin name
// is the field name in lowercase. Pins that may be absent from a descriptor
// are tagged `hw:"pin_name,optional"`.
//
// Fields of type *Pin are bound to a single pin. Fields of type []*Pin are
// bound to bus pins name[0], name[1]... up to the first missing index.
//
// For example:
//
//	var pins struct {
//		Anode   *boardsim.Pin `hw:"anode"`
//		Cathode *boardsim.Pin `hw:"cathode"`
//	}
//	err := base.BindPins(&pins)
//
// BindPins returns an error if a required pin is missing from the
// descriptor. It panics if v is not a pointer to a struct or if a tagged
// field has an unsupported type.
//
func (b *Base) BindPins(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		panic(errors.Errorf("BindPins: unsupported type %T", v))
	}
	e := rv.Elem()
	typ := e.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		tv := strings.Split(tag, ",")
		name := tv[0]
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		optional := len(tv) > 1 && tv[1] == "optional"

		switch f.Type {
		case pinType:
			p := b.Pin(name)
			if p == nil {
				if optional {
					continue
				}
				return errors.Errorf("%s: missing pin %q", b.desc.Name, name)
			}
			e.Field(i).Set(reflect.ValueOf(p))
		case busType:
			var bus []*Pin
			for j := 0; ; j++ {
				p := b.Pin(BusPinName(name, j))
				if p == nil {
					break
				}
				bus = append(bus, p)
			}
			if len(bus) == 0 && !optional {
				return errors.Errorf("%s: missing bus %q", b.desc.Name, name)
			}
			e.Field(i).Set(reflect.ValueOf(bus))
		default:
			panic(errors.Errorf("unsupported type %q for field %q in %q", f.Type, f.Name, typ.Name()))
		}
	}
	return nil
}

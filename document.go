// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Object holds the instance properties of a placed device.
//
type Object struct {
	ID       string                 `json:"id" yaml:"id"`
	Device   string                 `json:"device" yaml:"device"`
	X        float64                `json:"x" yaml:"x,omitempty"`
	Y        float64                `json:"y" yaml:"y,omitempty"`
	Rotation float64                `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Color    string                 `json:"color,omitempty" yaml:"color,omitempty"`
	Props    map[string]interface{} `json:"props,omitempty" yaml:"props,omitempty"`
}

// WireRefs holds the endpoints of a wire in a document.
//
type WireRefs struct {
	From PinRef `json:"from"`
	To   PinRef `json:"to"`
}

// A Document is the persisted form of a schematic: placed objects, the first
// one being the root board, and wires between their pins.
//
type Document struct {
	Objects []Object   `json:"objects"`
	Wires   []WireRefs `json:"wires"`
}

// ReadDocument decodes a JSON document from r.
//
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "failed to decode schematic document")
	}
	return &d, nil
}

// Encode writes d as indented JSON to w.
//
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(d), "failed to encode schematic document")
}

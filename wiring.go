// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BusPinName returns the name of the i-th pin of a bus.
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// ExpandRange expands a bus range like "D[0..3]" into individual pin names
// ("D[0]", "D[1]", "D[2]", "D[3]"). Names without a range are returned as is.
//
// The bus prefix may contain a path: "mcu.PB[0..1]" expands to "mcu.PB[0]"
// and "mcu.PB[1]".
//
func ExpandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name in " + name)
	}
	n := name[i+1:]
	i = strings.Index(n, "..")
	if i < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrap(err, "bus range start in "+name)
	}
	n = n[i+2:]
	i = strings.IndexRune(n, ']')
	if i < 0 {
		return nil, errors.New("no terminating ] in bus range " + name)
	}
	end, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrap(err, "bus range end in "+name)
	}
	if end < start {
		return nil, errors.New("inverted bus range " + name)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// expandConnections maps each pin of the (possibly ranged) board pin name to
// the child pins listed in conns. Each entry of conns is expanded and matched
// against the board pins:
//
//	same length: one to one
//	one board pin: one to many
//	one child pin: many to one
//
func expandConnections(pin string, conns []string) (map[string][]string, error) {
	ks, err := ExpandRange(pin)
	if err != nil {
		return nil, errors.Wrap(err, "expand pin "+pin)
	}
	r := make(map[string][]string, len(ks))
	for _, c := range conns {
		if c == "" {
			return nil, errors.New("empty connection for pin " + pin)
		}
		vs, err := ExpandRange(c)
		if err != nil {
			return nil, errors.Wrap(err, "expand connection "+c)
		}
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				r[ks[i]] = append(r[ks[i]], vs[i])
			}
		case len(ks) == 1:
			r[ks[0]] = append(r[ks[0]], vs...)
		case len(vs) == 1:
			for _, k := range ks {
				r[k] = append(r[k], vs[0])
			}
		default:
			return nil, errors.New("pin count mismatch in connection " + pin + ":" + c)
		}
	}
	return r, nil
}

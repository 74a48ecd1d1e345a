// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/db47h/boardsim"
	"github.com/db47h/boardsim/hwlib"
	"github.com/pkg/errors"
)

// printer reports device state changes.
//
type printer struct {
	w io.Writer
}

func (p *printer) DeviceChanged(d boardsim.Device) {
	if st := state(d); st != "" {
		fmt.Fprintf(p.w, "%s: %s\n", d.Path(), st)
	}
}

func state(d boardsim.Device) string {
	switch d := d.(type) {
	case *hwlib.LED:
		if d.On() {
			return d.Color() + " on"
		}
		return d.Color() + " off"
	case *hwlib.WS2812:
		c := d.Color()
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	case *hwlib.ST7789:
		xs, xe, ys, ye := d.Window()
		x, y := d.Cursor()
		return fmt.Sprintf("window (%d,%d)-(%d,%d) cursor (%d,%d) inverted=%v", xs, ys, xe, ye, x, y, d.Inverted())
	case *hwlib.MCU:
		return d.State().String()
	}
	return ""
}

// shell is the interactive command loop. Lines are read on a separate
// goroutine; commands and refresh ticks run on the loop's goroutine, which is
// the only one touching the schematic.
//
type shell struct {
	rl  *readline.Instance
	s   *boardsim.Schematic
	log *slog.Logger
	doc string
}

type command struct {
	args string
	help string
	fn   func(sh *shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"", "show this help", (*shell).cmdHelp},
		"devices": {"", "list devices", (*shell).cmdDevices},
		"pins":    {"<device>", "list the pins of a device", (*shell).cmdPins},
		"add":     {"<id> <device>", "add a device", (*shell).cmdAdd},
		"rm":      {"<id>", "remove a device and its wires", (*shell).cmdRemove},
		"wires":   {"", "list wires", (*shell).cmdWires},
		"wire":    {"<obj.pin> <obj.pin>", "connect two pins", (*shell).cmdWire},
		"unwire":  {"<obj.pin> <obj.pin>", "remove the wire between two pins", (*shell).cmdUnwire},
		"mode":    {"<obj.pin> in|out", "set a pin mode", (*shell).cmdMode},
		"set":     {"<obj.pin> 0|1", "drive a pin", (*shell).cmdSet},
		"show":    {"<device>", "show device state", (*shell).cmdShow},
		"run":     {"<mcu> <binary>", "run a binary on a microcontroller", (*shell).cmdRun},
		"stop":    {"<mcu>", "stop a microcontroller", (*shell).cmdStop},
		"tick":    {"", "refresh now", (*shell).cmdTick},
		"save":    {"[file]", "save the schematic document", (*shell).cmdSave},
	}
}

func (sh *shell) run() {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := sh.rl.Readline()
			if err == readline.ErrInterrupt {
				continue
			}
			if err != nil {
				return
			}
			lines <- line
		}
	}()

	t := time.NewTicker(time.Second / time.Duration(config.Refresh))
	defer t.Stop()
	for {
		select {
		case <-t.C:
			sh.s.Tick()
		case line, ok := <-lines:
			if !ok {
				return
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			name, args := strings.ToLower(fields[0]), fields[1:]
			if name == "quit" || name == "exit" || name == "q" {
				return
			}
			cmd, ok := commands[name]
			if !ok {
				fmt.Fprintf(sh.rl.Stdout(), "unknown command: %s (type 'help' for commands)\n", name)
				continue
			}
			if err := cmd.fn(sh, args); err != nil {
				fmt.Fprintln(sh.rl.Stdout(), "error:", err)
			}
		}
	}
}

func (sh *shell) out() io.Writer { return sh.rl.Stdout() }

func nargs(args []string, n int) error {
	if len(args) != n {
		return errors.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func (sh *shell) device(path string) (boardsim.Device, error) {
	d := sh.s.Find(path)
	if d == nil {
		return nil, errors.Errorf("no such device %q", path)
	}
	return d, nil
}

func (sh *shell) pin(ref string) (*boardsim.Pin, error) {
	r, err := boardsim.ParsePinRef(ref)
	if err != nil {
		return nil, err
	}
	p := sh.s.Pin(r)
	if p == nil {
		return nil, errors.Errorf("no such pin %q", ref)
	}
	return p, nil
}

func (sh *shell) cmdHelp([]string) error {
	for _, name := range []string{
		"devices", "pins", "add", "rm", "wires", "wire", "unwire",
		"mode", "set", "show", "run", "stop", "tick", "save", "help",
	} {
		c := commands[name]
		fmt.Fprintf(sh.out(), "  %-8s %-20s %s\n", name, c.args, c.help)
	}
	fmt.Fprintf(sh.out(), "  %-8s %-20s %s\n", "quit", "", "exit")
	return nil
}

func (sh *shell) cmdDevices([]string) error {
	for _, d := range sh.s.Devices() {
		boardsim.Walk(d, func(d boardsim.Device) {
			depth := strings.Count(d.Path(), "/")
			fmt.Fprintf(sh.out(), "%s%s (%s)\n", strings.Repeat("  ", depth), d.Path(), d.Descriptor().Name)
		})
	}
	return nil
}

func (sh *shell) cmdPins(args []string) error {
	if err := nargs(args, 1); err != nil {
		return err
	}
	d, err := sh.device(args[0])
	if err != nil {
		return err
	}
	for _, p := range d.Pins() {
		lvl := "floating"
		switch {
		case p.IsHigh():
			lvl = "high"
		case p.IsLow():
			lvl = "low"
		}
		fmt.Fprintf(sh.out(), "  %-16s %-6s %-8s %d connected\n", p, p.Mode(), lvl, len(p.Connected())-1)
	}
	return nil
}

func (sh *shell) cmdAdd(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	_, err := sh.s.AddDevice(context.Background(), boardsim.Object{ID: args[0], Device: args[1]})
	return err
}

func (sh *shell) cmdRemove(args []string) error {
	if err := nargs(args, 1); err != nil {
		return err
	}
	d := sh.s.Device(args[0])
	if d == nil {
		return errors.Errorf("no such top level device %q", args[0])
	}
	if d == sh.s.Root() {
		return errors.New("cannot remove the root board")
	}
	sh.s.RemoveDevice(d)
	return nil
}

func (sh *shell) cmdWires([]string) error {
	for _, w := range sh.s.Wires() {
		st := ""
		if !w.Active() {
			st = " (inactive)"
		}
		fmt.Fprintf(sh.out(), "  %s%s\n", w, st)
	}
	return nil
}

func (sh *shell) cmdWire(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	from, err := sh.pin(args[0])
	if err != nil {
		return err
	}
	to, err := sh.pin(args[1])
	if err != nil {
		return err
	}
	if from == to {
		return errors.New("wire endpoints must be distinct")
	}
	sh.s.Connect(from, to)
	return nil
}

func (sh *shell) cmdUnwire(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	a, err := sh.pin(args[0])
	if err != nil {
		return err
	}
	b, err := sh.pin(args[1])
	if err != nil {
		return err
	}
	for _, w := range a.Wires() {
		if w.Other(a) == b {
			sh.s.RemoveWire(w)
			return nil
		}
	}
	return errors.Errorf("no wire between %s and %s", a, b)
}

func (sh *shell) cmdMode(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	p, err := sh.pin(args[0])
	if err != nil {
		return err
	}
	var m boardsim.Mode
	if err = m.UnmarshalText([]byte(args[1])); err != nil {
		return err
	}
	p.SetMode(m)
	return nil
}

func (sh *shell) cmdSet(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	p, err := sh.pin(args[0])
	if err != nil {
		return err
	}
	switch args[1] {
	case "0", "low":
		p.Set(false)
	case "1", "high":
		p.Set(true)
	default:
		return errors.Errorf("invalid level %q", args[1])
	}
	return nil
}

func (sh *shell) cmdShow(args []string) error {
	if err := nargs(args, 1); err != nil {
		return err
	}
	d, err := sh.device(args[0])
	if err != nil {
		return err
	}
	st := state(d)
	if st == "" {
		st = "no visible state"
	}
	fmt.Fprintf(sh.out(), "%s (%s): %s\n", d.Path(), d.Kind(), st)
	return nil
}

func (sh *shell) mcu(path string) (*hwlib.MCU, error) {
	d, err := sh.device(path)
	if err != nil {
		return nil, err
	}
	m, ok := d.(*hwlib.MCU)
	if !ok {
		return nil, errors.Errorf("%s is not a microcontroller", path)
	}
	return m, nil
}

func (sh *shell) cmdRun(args []string) error {
	if err := nargs(args, 2); err != nil {
		return err
	}
	m, err := sh.mcu(args[0])
	if err != nil {
		return err
	}
	bin, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.RunBinary(ctx, bin)
}

func (sh *shell) cmdStop(args []string) error {
	if err := nargs(args, 1); err != nil {
		return err
	}
	m, err := sh.mcu(args[0])
	if err != nil {
		return err
	}
	m.Stop()
	return nil
}

func (sh *shell) cmdTick([]string) error {
	sh.s.Tick()
	return nil
}

func (sh *shell) cmdSave(args []string) error {
	name := sh.doc
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return errors.New("no file name")
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = sh.s.Document().Encode(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	sh.doc = name
	sh.log.Info("schematic saved", "file", name)
	return nil
}

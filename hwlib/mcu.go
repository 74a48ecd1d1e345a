// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"context"
	"log/slog"

	"github.com/db47h/boardsim"
	"github.com/db47h/boardsim/sandbox"
	"github.com/pkg/errors"
)

// maxDrain is the maximum number of sandbox messages handled per Tick.
//
const maxDrain = 1024

// State is the execution state of a microcontroller.
//
type State uint8

// Execution states.
//
const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type mcuParams struct {
	ClockHz uint64 `yaml:"clockHz"`
}

// MCU is a microcontroller running a compiled program in an execution sandbox.
// Pin updates produced by the program are applied to the MCU pins on Tick.
//
//	Pins: any, numbered by their index in the descriptor
//	Params: clockHz
//
// Update notifications from the sandbox are coalesced: any number of them
// received before a Tick results in a single getUpdate request.
//
type MCU struct {
	*boardsim.Base
	log     *slog.Logger
	params  mcuParams
	session sandbox.Session
	spi     map[int]*SPI
	inputs  []int8 // last level reported per pin: -1 unknown, 0 low, 1 high

	dirty   bool // updates are available in the sandbox
	pulling bool // a getUpdate request is in flight
}

func makeMCU(_ context.Context, b *boardsim.Base) (boardsim.Device, error) {
	m := &MCU{Base: b, log: b.Logger()}
	if err := b.Descriptor().DecodeParams(&m.params); err != nil {
		return nil, err
	}
	m.resetInputs()
	return m, nil
}

func (m *MCU) resetInputs() {
	m.inputs = make([]int8, len(m.Pins()))
	for i := range m.inputs {
		m.inputs[i] = -1
	}
}

// State returns the execution state.
//
func (m *MCU) State() State {
	if m.session != nil {
		return Running
	}
	return Idle
}

// RunBinary stops the running program, if any, resets all pins to their
// power-on state and starts binary in a new execution context obtained from
// the environment's sandbox opener.
//
func (m *MCU) RunBinary(ctx context.Context, binary []byte) error {
	m.Stop()
	boardsim.Reset(m.Pins()...)

	op := m.Env().Sandbox()
	if op == nil {
		return errors.New("no sandbox configured")
	}
	s, err := op.Open(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to open execution context")
	}
	cfg := sandbox.Config{
		Board:   m.Descriptor().Name,
		Pins:    len(m.Pins()),
		ClockHz: m.params.ClockHz,
	}
	if err = s.Send(sandbox.Start(binary, cfg)); err != nil {
		s.Close()
		return errors.Wrap(err, "failed to start program")
	}
	m.session = s
	m.log.Info("program started", "size", len(binary))
	return nil
}

// Stop tears down the running execution context. Pin states are left as is.
//
func (m *MCU) Stop() {
	if m.session == nil {
		return
	}
	if err := m.session.Close(); err != nil {
		m.log.Warn("closing execution context", "err", err)
	}
	m.end()
	m.log.Info("program stopped")
}

// end forgets the current session and the state bound to it.
//
func (m *MCU) end() {
	m.session = nil
	m.dirty, m.pulling = false, false
	m.spi = nil
	m.resetInputs()
}

// Close implements io.Closer.
//
func (m *MCU) Close() error {
	m.Stop()
	return nil
}

// SPI returns the SPI bus with the given number, creating it if needed.
//
func (m *MCU) SPI(bus int) *SPI {
	if m.spi == nil {
		m.spi = make(map[int]*SPI)
	}
	s := m.spi[bus]
	if s == nil {
		s = &SPI{mcu: m, bus: bus}
		m.spi[bus] = s
	}
	return s
}

// ConfigureSPI binds SPI bus number bus to the given pins.
//
func (m *MCU) ConfigureSPI(bus int, sck, sdo, sdi *boardsim.Pin) *SPI {
	s := m.SPI(bus)
	s.Configure(sck, sdo, sdi)
	return s
}

// PinChanged implements boardsim.PinChangeHandler. Level changes seen on
// input pins are forwarded to the running program.
//
func (m *MCU) PinChanged(p *boardsim.Pin) {
	if m.session == nil || p.Mode() != boardsim.Input {
		return
	}
	var lvl int8
	if p.IsHigh() {
		lvl = 1
	}
	i := p.Index()
	if m.inputs[i] == lvl {
		return
	}
	m.inputs[i] = lvl
	if err := m.session.Send(sandbox.Input(i, lvl == 1)); err != nil {
		m.log.Warn("input not forwarded", "pin", p.String(), "err", err)
	}
}

// Tick implements boardsim.Ticker. It drains the messages queued by the
// sandbox and pulls pending updates if the sandbox reported any.
//
func (m *MCU) Tick() {
	for n := 0; m.session != nil && n < maxDrain; n++ {
		select {
		case msg, ok := <-m.session.Recv():
			if !ok {
				// pin states are left intact.
				m.log.Error("execution context terminated")
				m.session.Close()
				m.end()
				return
			}
			m.handle(msg)
			continue
		default:
		}
		break
	}
	if m.session != nil && m.dirty && !m.pulling {
		if err := m.session.Send(sandbox.GetUpdate()); err != nil {
			m.log.Warn("update request failed", "err", err)
			return
		}
		m.dirty, m.pulling = false, true
	}
}

func (m *MCU) handle(msg sandbox.Message) {
	switch msg.Type {
	case sandbox.TypeNotify:
		m.dirty = true
	case sandbox.TypeUpdate:
		m.pulling = false
		for i := range msg.Updates {
			m.apply(&msg.Updates[i])
		}
	case sandbox.TypeLog:
		m.log.Info("program output", "text", msg.Text)
	case sandbox.TypeError:
		m.log.Error("program failed", "err", msg.Text)
		m.session.Close()
		m.end()
	default:
		m.log.Warn("unexpected message from execution context", "type", msg.Type.String())
	}
}

func (m *MCU) pin(n int) *boardsim.Pin {
	if ps := m.Pins(); n >= 0 && n < len(ps) {
		return ps[n]
	}
	return nil
}

func (m *MCU) apply(u *sandbox.Update) {
	switch u.Kind {
	case sandbox.GPIOSet:
		if p := m.pin(u.Pin); p != nil {
			p.Set(u.High)
			return
		}
	case sandbox.GPIOMode:
		if p := m.pin(u.Pin); p != nil {
			mode := boardsim.Input
			if u.Output {
				mode = boardsim.Output
			}
			p.SetMode(mode)
			return
		}
	case sandbox.SPIConfigure:
		sck, sdo := m.pin(u.SCK), m.pin(u.SDO)
		if sck != nil && sdo != nil {
			m.ConfigureSPI(u.Bus, sck, sdo, m.pin(u.SDI))
			return
		}
	case sandbox.SPITransfer:
		s := m.SPI(u.Bus)
		for _, b := range u.Data {
			s.Transfer(b)
		}
		return
	case sandbox.WS2812Write:
		if p := m.pin(u.Pin); p != nil {
			for _, b := range u.Data {
				shiftOut(m, p, b)
			}
			return
		}
	}
	m.log.Warn("invalid update", "kind", u.Kind.String(), "pin", u.Pin)
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sandbox

import (
	"github.com/pkg/errors"
)

// Type identifies a message.
//
type Type uint8

// Message types.
//
const (
	TypeInvalid Type = iota
	// TypeStart starts the program in Binary with Config. core -> sandbox.
	TypeStart
	// TypeGetUpdate pulls pending updates. core -> sandbox.
	TypeGetUpdate
	// TypeInput reports an externally driven input pin level. core -> sandbox.
	TypeInput
	// TypeNotify signals that updates are pending. sandbox -> core.
	TypeNotify
	// TypeUpdate carries a batch of updates. sandbox -> core.
	TypeUpdate
	// TypeLog carries a diagnostic line. sandbox -> core.
	TypeLog
	// TypeError reports a failure that ends the current run. sandbox -> core.
	TypeError
)

var typeNames = [...]string{
	TypeInvalid:   "invalid",
	TypeStart:     "start",
	TypeGetUpdate: "getUpdate",
	TypeInput:     "input",
	TypeNotify:    "notify",
	TypeUpdate:    "update",
	TypeLog:       "log",
	TypeError:     "error",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// UpdateKind identifies the kind of state delta in an Update.
//
type UpdateKind uint8

// Update kinds.
//
const (
	// GPIOSet drives Pin to High.
	GPIOSet UpdateKind = iota + 1
	// GPIOMode switches Pin to input (Output == false) or output mode.
	GPIOMode
	// SPIConfigure binds Bus to the SCK, SDO and SDI pins.
	SPIConfigure
	// SPITransfer sends every byte of Data over Bus.
	SPITransfer
	// WS2812Write shifts every byte of Data out of Pin.
	WS2812Write
)

var kindNames = [...]string{
	GPIOSet:      "gpio-set",
	GPIOMode:     "gpio-mode",
	SPIConfigure: "spi-configure",
	SPITransfer:  "spi-transfer",
	WS2812Write:  "ws2812-write",
}

func (k UpdateKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Config is the run configuration sent along with a binary.
//
type Config struct {
	// Board is the name of the board descriptor the program runs on.
	Board string `cbor:"1,keyasint,omitempty" json:"board,omitempty"`
	// Pins is the number of MCU pins visible to the program.
	Pins int `cbor:"2,keyasint,omitempty" json:"pins,omitempty"`
	// ClockHz is a hint of the simulated clock speed.
	ClockHz uint64 `cbor:"3,keyasint,omitempty" json:"clock_hz,omitempty"`
}

// Update is one state delta produced by the running program. Pin numbers are
// indexes in the microcontroller's pin list.
//
type Update struct {
	Kind   UpdateKind `cbor:"1,keyasint" json:"kind"`
	Pin    int        `cbor:"2,keyasint,omitempty" json:"pin,omitempty"`
	High   bool       `cbor:"3,keyasint,omitempty" json:"high,omitempty"`
	Output bool       `cbor:"4,keyasint,omitempty" json:"output,omitempty"`
	Bus    int        `cbor:"5,keyasint,omitempty" json:"bus,omitempty"`
	SCK    int        `cbor:"6,keyasint,omitempty" json:"sck,omitempty"`
	SDO    int        `cbor:"7,keyasint,omitempty" json:"sdo,omitempty"`
	SDI    int        `cbor:"8,keyasint,omitempty" json:"sdi,omitempty"`
	Data   []byte     `cbor:"9,keyasint,omitempty" json:"data,omitempty"`
}

// Message is the unit exchanged with an execution context. Only the fields
// relevant to Type are set.
//
type Message struct {
	Type    Type     `cbor:"1,keyasint" json:"type"`
	Binary  []byte   `cbor:"2,keyasint,omitempty" json:"binary,omitempty"`
	Config  *Config  `cbor:"3,keyasint,omitempty" json:"config,omitempty"`
	Updates []Update `cbor:"4,keyasint,omitempty" json:"updates,omitempty"`
	Text    string   `cbor:"5,keyasint,omitempty" json:"text,omitempty"`
	Pin     int      `cbor:"6,keyasint,omitempty" json:"pin,omitempty"`
	High    bool     `cbor:"7,keyasint,omitempty" json:"high,omitempty"`
}

// Start returns a start message.
//
func Start(binary []byte, cfg Config) Message {
	return Message{Type: TypeStart, Binary: binary, Config: &cfg}
}

// GetUpdate returns a pull request for pending updates.
//
func GetUpdate() Message { return Message{Type: TypeGetUpdate} }

// Input returns a message reporting the level of input pin.
//
func Input(pin int, high bool) Message { return Message{Type: TypeInput, Pin: pin, High: high} }

// Notify returns an update notification.
//
func Notify() Message { return Message{Type: TypeNotify} }

// Updates returns an update payload.
//
func Updates(u ...Update) Message { return Message{Type: TypeUpdate, Updates: u} }

// Log returns a log message.
//
func Log(text string) Message { return Message{Type: TypeLog, Text: text} }

// Error returns an error message.
//
func Error(text string) Message { return Message{Type: TypeError, Text: text} }

// Validate checks that m is well formed.
//
func (m *Message) Validate() error {
	switch m.Type {
	case TypeStart:
		if m.Config == nil {
			return errors.New("start message without config")
		}
	case TypeGetUpdate, TypeInput, TypeNotify, TypeLog, TypeError:
	case TypeUpdate:
		for i := range m.Updates {
			if k := m.Updates[i].Kind; k < GPIOSet || k > WS2812Write {
				return errors.Errorf("update %d: invalid kind %d", i, k)
			}
		}
	default:
		return errors.Errorf("invalid message type %d", m.Type)
	}
	return nil
}

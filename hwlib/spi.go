// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/boardsim"
)

// SPI is a logical SPI bus of a microcontroller.
//
type SPI struct {
	mcu           *MCU
	bus           int
	sck, sdo, sdi *boardsim.Pin
}

// Bus returns the bus number.
//
func (s *SPI) Bus() int { return s.bus }

// Configure binds the bus to its clock, data out and data in pins. sdi may be
// nil for write-only buses.
//
func (s *SPI) Configure(sck, sdo, sdi *boardsim.Pin) {
	s.sck, s.sdo, s.sdi = sck, sdo, sdi
}

// Pins returns the configured clock, data out and data in pins.
//
func (s *SPI) Pins() (sck, sdo, sdi *boardsim.Pin) { return s.sck, s.sdo, s.sdi }

// Transfer sends b to every SPI slave connected to the bus clock or data out
// pin. Each slave is called once.
//
func (s *SPI) Transfer(b byte) {
	if s.sck == nil || s.sdo == nil {
		s.mcu.log.Warn("transfer on unconfigured SPI bus", "bus", s.bus)
		return
	}
	seen := make(map[boardsim.Device]struct{})
	for _, net := range [][]*boardsim.Pin{s.sck.Connected(), s.sdo.Connected()} {
		for _, p := range net {
			d := p.Device()
			if d == boardsim.Device(s.mcu) {
				continue
			}
			if _, ok := seen[d]; ok {
				continue
			}
			if slave, ok := d.(boardsim.SPISlave); ok {
				seen[d] = struct{}{}
				slave.TransferSPI(s.sck, s.sdo, s.sdi, b)
			}
		}
	}
}

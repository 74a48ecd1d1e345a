// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package boardsim provides the hardware simulation core of a development board
previewer: a connectivity graph over device pins and wires, a device object
model and the plumbing that feeds pin updates produced by a program running in
an external execution sandbox back into that graph.

A Schematic owns a set of Devices and Wires. Every Device owns Pins. Pins are
tied together either by on-board groups (fixed connections inside a board,
established when a Composite device is loaded) or by Wires added at run time.
The set of pins electrically reachable from a pin is returned by
Pin.Connected and is cached until the next structural change of the schematic.

Devices react to pin changes through capability interfaces (PinChangeHandler,
SPISlave, ShiftSink, Ticker). Concrete devices live in package hwlib.

The core is single threaded: all mutations and notifications happen
synchronously on the caller's goroutine. The host calls Schematic.Tick at its
own refresh cadence to pull updates from running programs and to commit
deferred device state.
*/
package boardsim

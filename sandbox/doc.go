// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package sandbox defines the message protocol spoken between the simulation
core and the isolated execution context that actually runs a compiled binary.

The core never executes code itself. It opens a Session through an Opener,
sends a Start message carrying the binary, and from then on exchanges
messages:

	core -> sandbox: start, getUpdate, input
	sandbox -> core: notify, update, log, error

Sends are fire-and-forget. Received messages are queued on the Session's
Recv channel and drained by the host on its own schedule; the core never
blocks waiting for the sandbox.

Two transports are provided: an in-process Pipe and a WebSocket transport
(Dialer on the core side, Handler on the sandbox side) carrying CBOR encoded
messages in binary frames.
*/
package sandbox

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package boardsim

import (
	"context"
	"io"
	"log/slog"

	"github.com/db47h/boardsim/sandbox"
)

// maxDepth caps nested pin change notifications. Devices wired into a
// feedback loop would otherwise recurse forever.
//
const maxDepth = 64

// An Observer is notified whenever the visible state of a device changes,
// such as an LED turning on or new pixels on a display.
//
type Observer interface {
	DeviceChanged(d Device)
}

// ObserverFunc adapts a function to the Observer interface.
//
type ObserverFunc func(d Device)

// DeviceChanged calls f(d).
//
func (f ObserverFunc) DeviceChanged(d Device) { f(d) }

// An AssetLoader makes visual assets available. Load blocks until the named
// asset is ready or ctx is done.
//
type AssetLoader interface {
	Load(ctx context.Context, name string) error
}

type noAssets struct{}

func (noAssets) Load(context.Context, string) error { return nil }

// Env is the state shared by every device and pin of a schematic: the
// connectivity version counter, the logger, the state observer, the sandbox
// opener and the asset loader.
//
// Each Schematic has its own Env so that independent schematics never
// invalidate each other's connectivity caches.
//
type Env struct {
	version uint64
	depth   int
	log     *slog.Logger
	obs     Observer
	sandbox sandbox.Opener
	assets  AssetLoader
}

// An Option configures an Env.
//
type Option func(e *Env)

// WithLogger sets the logger. The default discards everything.
//
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) { e.log = l }
}

// WithObserver sets the device state observer.
//
func WithObserver(o Observer) Option {
	return func(e *Env) { e.obs = o }
}

// WithSandbox sets the opener used by microcontrollers to start programs.
//
func WithSandbox(o sandbox.Opener) Option {
	return func(e *Env) { e.sandbox = o }
}

// WithAssets sets the loader composite devices wait on for their background
// asset.
//
func WithAssets(a AssetLoader) Option {
	return func(e *Env) { e.assets = a }
}

// NewEnv returns a new Env.
//
func NewEnv(opts ...Option) *Env {
	e := &Env{
		version: 1,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		assets:  noAssets{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Version returns the current connectivity version.
//
func (e *Env) Version() uint64 { return e.version }

// Invalidate bumps the connectivity version, invalidating all cached
// connected sets.
//
func (e *Env) Invalidate() { e.version++ }

// Logger returns the environment's logger.
//
func (e *Env) Logger() *slog.Logger { return e.log }

// Sandbox returns the sandbox opener. It may be nil.
//
func (e *Env) Sandbox() sandbox.Opener { return e.sandbox }

func (e *Env) changed(d Device) {
	if e.obs != nil {
		e.obs.DeviceChanged(d)
	}
}

// notify calls the PinChanged handler of the device owning each pin.
//
func (e *Env) notify(pins []*Pin) {
	if e.depth >= maxDepth {
		e.log.Warn("pin change notification dropped: feedback loop?", "depth", e.depth)
		return
	}
	e.depth++
	defer func() { e.depth-- }()
	for _, p := range pins {
		if h, ok := p.dev.(PinChangeHandler); ok {
			h.PinChanged(p)
		}
	}
}

// notifyNets notifies every pin connected to any of pins, each exactly once.
//
func (e *Env) notifyNets(pins ...*Pin) {
	var all []*Pin
	seen := make(map[*Pin]struct{})
	for _, p := range pins {
		for _, q := range p.Connected() {
			if _, ok := seen[q]; ok {
				continue
			}
			seen[q] = struct{}{}
			all = append(all, q)
		}
	}
	e.notify(all)
}

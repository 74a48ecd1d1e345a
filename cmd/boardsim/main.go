// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command boardsim is an interactive shell over a simulated board.
//
// Usage:
//
//	boardsim [flags] [document.json]
//
// Flags:
//
//	-config string       Configuration file path
//	-descriptors string  Directory of device descriptors (*.yaml, *.json)
//	-assets string       Directory of board background assets
//	-sandbox string      WebSocket URL of the execution sandbox
//	-board string        Root board device for a new schematic (default "board")
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-refresh int         Refresh rate in Hz (default 30)
//
// Without a document argument, a new schematic is created around the root
// board. Programs are run on a remote sandbox:
//
//	boardsim -descriptors ./boards -sandbox ws://localhost:8080/run
//	> run main/mcu blink.elf
//
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/chzyer/readline"
	"github.com/db47h/boardsim"
	"github.com/db47h/boardsim/hwlib"
	"github.com/db47h/boardsim/sandbox"
	"github.com/pkg/errors"
)

var (
	config     = defaultConfig
	configFile string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&config.Descriptors, "descriptors", "", "Directory of device descriptors")
	flag.StringVar(&config.Assets, "assets", "", "Directory of board background assets")
	flag.StringVar(&config.Sandbox, "sandbox", "", "WebSocket URL of the execution sandbox")
	flag.StringVar(&config.Board, "board", config.Board, "Root board device for a new schematic")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "Log level: debug, info, warn, error")
	flag.IntVar(&config.Refresh, "refresh", config.Refresh, "Refresh rate in Hz")
}

func main() {
	flag.Parse()
	if err := setup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "boardsim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	log := slog.New(slog.NewTextHandler(rl.Stderr(), &slog.HandlerOptions{Level: config.level()}))
	s, err := open(context.Background(), log, &printer{w: rl.Stdout()}, flag.Arg(0))
	if err != nil {
		log.Error("failed to open schematic", "err", err)
		os.Exit(1)
	}
	defer s.Close()

	sh := &shell{rl: rl, s: s, log: log, doc: flag.Arg(0)}
	sh.run()
}

// setup merges the configuration file and the command line flags.
//
func setup() error {
	if configFile == "" {
		return config.validate()
	}
	var fromFile = defaultConfig
	if err := loadConfig(configFile, &fromFile); err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	merge := func(name string, dst *string, v string) {
		if !set[name] {
			*dst = v
		}
	}
	merge("descriptors", &config.Descriptors, fromFile.Descriptors)
	merge("assets", &config.Assets, fromFile.Assets)
	merge("sandbox", &config.Sandbox, fromFile.Sandbox)
	merge("board", &config.Board, fromFile.Board)
	merge("log-level", &config.LogLevel, fromFile.LogLevel)
	if !set["refresh"] {
		config.Refresh = fromFile.Refresh
	}
	return config.validate()
}

// open builds the registry and the schematic, loading doc if not empty.
//
func open(ctx context.Context, log *slog.Logger, obs boardsim.Observer, doc string) (*boardsim.Schematic, error) {
	reg := hwlib.NewRegistry()
	if config.Descriptors != "" {
		if err := reg.LoadFS(os.DirFS(config.Descriptors)); err != nil {
			return nil, errors.Wrap(err, "failed to load descriptors")
		}
	}
	log.Debug("descriptors loaded", "names", reg.Names())

	opts := []boardsim.Option{boardsim.WithLogger(log), boardsim.WithObserver(obs)}
	if config.Assets != "" {
		opts = append(opts, boardsim.WithAssets(dirAssets(config.Assets)))
	}
	if config.Sandbox != "" {
		opts = append(opts, boardsim.WithSandbox(&sandbox.Dialer{URL: config.Sandbox}))
	}
	s := boardsim.New(reg, opts...)

	if doc == "" {
		_, err := s.AddDevice(ctx, boardsim.Object{ID: "main", Device: config.Board})
		return s, err
	}
	f, err := os.Open(doc)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := boardsim.ReadDocument(f)
	if err != nil {
		return nil, err
	}
	return s, s.Load(ctx, d)
}

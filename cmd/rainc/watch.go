// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"os"

	"github.com/rjeczalik/notify"
	"gopkg.in/urfave/cli.v1"

	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/diag"
)

var watchCommand = cli.Command{
	Name:      "watch",
	Usage:     "recompile a file on every save and re-print diagnostics",
	ArgsUsage: "<file>",
	Action:    runGuarded(runWatch),
}

func runWatch(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: rainc watch <file>")
	}
	path := c.Args().First()

	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	comp := compiler.New()
	if err := cfg.apply(comp); err != nil {
		return err
	}

	events := make(chan notify.EventInfo, 1)
	if err := notify.Watch(path, events, notify.Write); err != nil {
		return err
	}
	defer notify.Stop(events)

	compileOnce := func() {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rainc watch: %v\n", err)
			return
		}
		tree, stateCfg := comp.Parse(string(src))
		if tree.HasError() {
			diag.NewPrinter(os.Stderr, string(src)).Print(tree.Diagnostics())
			return
		}
		fmt.Printf("%s: ok, %d source(s), %d constant(s)\n", path, len(stateCfg.Sources), len(stateCfg.Constants))
	}

	compileOnce()
	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", path)
	for range events {
		compileOnce()
	}
	return nil
}

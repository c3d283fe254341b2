// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/diag"
)

var replCommand = cli.Command{
	Name:   "repl",
	Usage:  "interactively parse and compile Rain expressions (no VM execution)",
	Action: runGuarded(runRepl),
}

func runRepl(c *cli.Context) error {
	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	comp := compiler.New()
	if err := cfg.apply(comp); err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		text, err := line.Prompt("rainc> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || err == io.EOF {
				return nil
			}
			return err
		}
		line.AppendHistory(text)
		if text == "" {
			continue
		}

		tree, stateCfg := comp.Parse(text)
		if tree.HasError() {
			diag.NewPrinter(os.Stderr, text).Print(tree.Diagnostics())
			continue
		}
		fmt.Printf("constants: %d, sources: %d\n", len(stateCfg.Constants), len(stateCfg.Sources))
		for i, src := range stateCfg.Sources {
			fmt.Printf("  source %d: %d bytes\n", i, len(src))
		}
	}
}

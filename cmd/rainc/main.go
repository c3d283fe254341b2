// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command rainc is the Rain-expression compiler front end.
//
// Usage:
//
//	rainc [-config file.toml] compile [-emit tokens|tree|bytecode] <file>
//	rainc tree [-dump] <file>
//	rainc opcodes
//	rainc repl
//	rainc watch <file>
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/rouzwelt/rainlang/internal/icerecover"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "rainc"
	app.Usage = "compile Rain expressions to StateConfig bytecode"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "TOML configuration file (registry overrides)"},
	}
	app.Commands = []cli.Command{
		compileCommand,
		treeCommand,
		opcodesCommand,
		replCommand,
		watchCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rainc: %v\n", err)
		os.Exit(1)
	}
}

// runGuarded wraps a subcommand's Action in icerecover.Run, turning any
// panic escaping the compiler core into a reported "internal compiler
// error" instead of a crash, and converts any error into the non-zero
// exit status cli.v1 expects.
func runGuarded(fn func(*cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := icerecover.Run(func() error { return fn(c) }); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
}

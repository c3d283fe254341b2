// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/rouzwelt/rainlang/compiler"
	"github.com/rouzwelt/rainlang/internal/diag"
)

var treeCommand = cli.Command{
	Name:      "tree",
	Usage:     "pretty-print a file's parse tree and diagnostics",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "dump", Usage: "use go-spew for a raw structural dump"},
	},
	Action: runGuarded(runTree),
}

func runTree(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: rainc tree [flags] <file>")
	}
	src, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	comp := compiler.New()
	if err := cfg.apply(comp); err != nil {
		return err
	}

	tree := comp.GetParseTree(string(src))
	emitTree(os.Stdout, tree, c.Bool("dump"))
	if diags := tree.Diagnostics(); len(diags) > 0 {
		diag.NewPrinter(os.Stderr, string(src)).Print(diags)
		return cli.NewExitError("", 1)
	}
	return nil
}

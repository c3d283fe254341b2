// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/rouzwelt/rainlang/opcode"
)

var opcodesCommand = cli.Command{
	Name:   "opcodes",
	Usage:  "list the opcode registry",
	Action: runGuarded(runOpcodes),
}

func runOpcodes(c *cli.Context) error {
	reg := opcode.New()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Aliases", "Operand Args", "Description"})
	for _, m := range reg.All() {
		table.Append([]string{
			strconv.Itoa(int(m.ID)),
			m.CanonicalName,
			strings.Join(m.Aliases.ToSlice(), ", "),
			strconv.Itoa(len(m.Codec.ArgRules)),
			m.Doc.Description,
		})
	}
	table.Render()

	pseudoTable := tablewriter.NewWriter(os.Stdout)
	pseudoTable.SetHeader([]string{"Pseudo-opcode", "Aliases", "Description"})
	for _, m := range []*opcode.Meta{reg.GTE(), reg.LTE(), reg.INEQ()} {
		pseudoTable.Append([]string{m.CanonicalName, strings.Join(m.Aliases.ToSlice(), ", "), m.Doc.Description})
	}
	pseudoTable.Render()
	return nil
}

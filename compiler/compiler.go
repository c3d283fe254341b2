// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package compiler exposes the Rain-expression core's programmatic
// surface: parse, get_parse_tree, get_state_config, build_bytes, and the
// opcode-registry mutators set_opmeta/set_gte_meta/set_lte_meta/set_ineq_meta
// (spec.md §6). It is the facade every cmd/ binary and HTTP handler talks
// to; nothing outside this package needs to know about the parser or
// codegen packages directly.
package compiler

import (
	"github.com/holiman/uint256"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/codegen"
	"github.com/rouzwelt/rainlang/opcode"
	"github.com/rouzwelt/rainlang/parser"
	"github.com/rouzwelt/rainlang/state"
)

// Compiler owns one opcode Registry. The registry may be mutated between
// calls via SetOpMeta/SetGteMeta/SetLteMeta/SetIneqMeta, but never
// concurrently with a Parse/GetStateConfig call (spec.md §5).
type Compiler struct {
	Registry    *opcode.Registry
	Placeholder string
}

// New builds a Compiler with a freshly loaded default registry and the
// default "_" placeholder.
func New() *Compiler {
	return &Compiler{Registry: opcode.New(), Placeholder: "_"}
}

// Parse implements `parse(text, opmeta?, placeholder?)`: a fresh
// parser.Parser is constructed per call, so no parser state survives
// across calls (spec.md §5, "reset at the start of every parse call").
func (c *Compiler) Parse(text string) (*ast.Tree, state.Config) {
	tree := c.GetParseTree(text)
	cfg, err := codegen.New(c.Registry).Generate(tree)
	if err != nil {
		return tree, state.EmptyConfig()
	}
	return tree, cfg
}

// GetParseTree implements `get_parse_tree(text, opmeta?, placeholder?)`.
func (c *Compiler) GetParseTree(text string) *ast.Tree {
	return parser.New(c.Registry, c.Placeholder).Parse(text)
}

// GetStateConfig implements `get_state_config(text, opmeta?, placeholder?)`.
func (c *Compiler) GetStateConfig(text string) (state.Config, error) {
	tree := c.GetParseTree(text)
	return codegen.New(c.Registry).Generate(tree)
}

// BuildBytes implements `build_bytes(tree | node | nodes, offset?,
// constants?)`: input is a *ast.Tree, a single ast.Node, or an []ast.Node,
// optionally continuing from a caller-supplied constant pool (e.g. one
// source's constants feeding the next in a ZIPMAP-style composition) and
// an arg(n) offset (e.g. how many ZIPMAP arguments an earlier source
// already consumed).
func (c *Compiler) BuildBytes(input any, offset int, constants []*uint256.Int) (state.Config, error) {
	return codegen.New(c.Registry).BuildBytes(input, offset, constants)
}

// SetOpMeta installs or replaces a stable-id opcode descriptor
// (spec.md §6, `set_opmeta`).
func (c *Compiler) SetOpMeta(m *opcode.Meta) error {
	return c.Registry.Set(m)
}

// SetGteMeta overrides the GTE pseudo-opcode's documentation/aliases.
func (c *Compiler) SetGteMeta(name, description string, data any, aliases []string) {
	c.Registry.SetGteMeta(name, description, data, aliases)
}

// SetLteMeta overrides the LTE pseudo-opcode's documentation/aliases.
func (c *Compiler) SetLteMeta(name, description string, data any, aliases []string) {
	c.Registry.SetLteMeta(name, description, data, aliases)
}

// SetIneqMeta overrides the INEQ pseudo-opcode's documentation/aliases.
func (c *Compiler) SetIneqMeta(name, description string, data any, aliases []string) {
	c.Registry.SetIneqMeta(name, description, data, aliases)
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package codegen lowers a resolved ast.Tree into a state.Config: a
// shared 256-bit constant pool plus one packed-bytecode source per
// sub-expression, emitted by post-order traversal (spec.md §4.6).
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/opcode"
	"github.com/rouzwelt/rainlang/state"
)

// Generator lowers parse trees against a fixed opcode registry snapshot.
type Generator struct {
	reg       *opcode.Registry
	stateMeta *opcode.Meta
	stateID   uint16
	lt, gt, eq, iszero *opcode.Meta
}

// New builds a Generator bound to reg. The STATE, LESS_THAN, GREATER_THAN,
// EQUAL_TO and ISZERO descriptors are read once, at construction time, per
// spec.md §5's "read-only at parse/codegen time" rule; GTE/LTE/INEQ are
// recognised by name at emission time.
func New(reg *opcode.Registry) *Generator {
	g := &Generator{reg: reg}
	g.stateMeta, _ = reg.Lookup("STATE")
	g.stateID = g.stateMeta.ID
	g.lt, _ = reg.Lookup("LESS_THAN")
	g.gt, _ = reg.Lookup("GREATER_THAN")
	g.eq, _ = reg.Lookup("EQUAL_TO")
	g.iszero, _ = reg.Lookup("ISZERO")
	return g
}

// Generate lowers the whole tree with no argument-reference offset and no
// seed constant pool, returning the empty sentinel StateConfig if the
// tree contains any error node (spec.md §4.6, "errors are fatal to code
// generation").
func (g *Generator) Generate(tree *ast.Tree) (state.Config, error) {
	return g.BuildBytes(tree, 0, nil)
}

// BuildBytes implements the `build_bytes(tree | node | nodes, offset?,
// constants?)` programmatic surface (spec.md §6): input is a *ast.Tree, a
// single ast.Node, or an []ast.Node, each lowered to one source per
// sub-expression (a bare node or node list is treated as a single
// sub-expression). offset is folded into every arg(n) sentinel before the
// final constant-index rewrite, and constants seeds the constant pool, so
// a caller can compose this call's bytecode into a larger ZIPMAP-style
// context where an earlier call already consumed some constant slots and
// some leading arg(n) indices.
func (g *Generator) BuildBytes(input any, offset int, constants []*uint256.Int) (state.Config, error) {
	rootsPerSource, err := rootsOf(input)
	if err != nil {
		return state.EmptyConfig(), err
	}
	for _, roots := range rootsPerSource {
		for _, root := range roots {
			if ast.DeepHasError(root) {
				return state.EmptyConfig(), nil
			}
		}
	}

	b := &builder{gen: g, constants: append([]*uint256.Int(nil), constants...)}
	sources := make([][]byte, len(rootsPerSource))
	var sentinels [][]sentinelRef // per source, positions needing the arg(n) rewrite

	for i, roots := range rootsPerSource {
		var buf []byte
		var refs []sentinelRef
		for _, root := range roots {
			var err error
			buf, refs, err = b.emit(buf, refs, root, offset)
			if err != nil {
				return state.EmptyConfig(), err
			}
		}
		sources[i] = buf
		sentinels = append(sentinels, refs)
	}

	for i, refs := range sentinels {
		for _, ref := range refs {
			index := ref.n + len(b.constants)
			operand, err := g.stateMeta.Codec.Encode([]int64{0, int64(index)}, 0)
			if err != nil {
				return state.EmptyConfig(), fmt.Errorf("arg(%d): %w", ref.n, err)
			}
			instr := state.Instruction{OpcodeID: g.stateID, Operand: operand}
			copy(sources[i][ref.byteOffset:ref.byteOffset+state.InstructionSize], instr.Append(nil))
		}
	}

	return state.Config{Constants: b.constants, Sources: sources}, nil
}

// rootsOf normalizes build_bytes's union input into one root-node list per
// source. *ast.Tree contributes one source per sub-expression; a bare
// ast.Node or []ast.Node is treated as a single source.
func rootsOf(input any) ([][]ast.Node, error) {
	switch v := input.(type) {
	case *ast.Tree:
		out := make([][]ast.Node, len(v.SubExprs))
		for i, se := range v.SubExprs {
			out[i] = se.Roots
		}
		return out, nil
	case []ast.Node:
		return [][]ast.Node{v}, nil
	case ast.Node:
		return [][]ast.Node{{v}}, nil
	default:
		return nil, fmt.Errorf("build_bytes: unsupported input type %T (want *ast.Tree, ast.Node, or []ast.Node)", input)
	}
}

// sentinelRef records where an arg(n) sentinel instruction landed in its
// source buffer, so the final rewrite pass (spec.md's `updateArgs`) can
// overwrite it once the constant pool's final length is known.
type sentinelRef struct {
	byteOffset int
	n          int
}

type builder struct {
	gen       *Generator
	constants []*uint256.Int
}

// constIndex returns the index of v in the constant pool, appending it
// if this is the first occurrence (spec.md §8, property 5: "exactly one
// occurrence" via linear search, not a hash set — mirrors the teacher's
// own small-N linear scan for constant pools).
func (b *builder) constIndex(v *uint256.Int) int {
	for i, c := range b.constants {
		if c.Eq(v) {
			return i
		}
	}
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

func (b *builder) emitState(buf []byte, index int) []byte {
	operand, err := b.gen.stateMeta.Codec.Encode([]int64{0, int64(index)}, 0)
	if err != nil {
		// A constant pool deeper than the 7-bit STATE index field is a
		// program that the target VM cannot run. A literal's index that
		// overflows is not reported as an error here: the operand is set
		// to 0. (Only the arg(n) rewrite pass returns an error for this.)
		operand = 0
	}
	return state.Instruction{OpcodeID: b.gen.stateID, Operand: operand}.Append(buf)
}

// emit appends n's post-order bytecode to buf, recording any arg(n)
// sentinel positions (relative to the start of buf) into refs so they can
// be rewritten once every source's constants are final.
func (b *builder) emit(buf []byte, refs []sentinelRef, n ast.Node, argOffset int) ([]byte, []sentinelRef, error) {
	switch v := n.(type) {
	case *ast.Value:
		return b.emitValue(buf, refs, v, argOffset)
	case *ast.Op:
		return b.emitOp(buf, refs, v, argOffset)
	case *ast.Err:
		// tree.HasError() already guarantees this is unreachable.
		return buf, refs, fmt.Errorf("internal: error node reached code generation at %s", v.Span)
	default:
		return buf, refs, fmt.Errorf("internal: unknown node type %T", n)
	}
}

func (b *builder) emitValue(buf []byte, refs []sentinelRef, v *ast.Value, argOffset int) ([]byte, []sentinelRef, error) {
	if n, ok := parseArgRef(v.Text); ok {
		// The sentinel's operand holds n+argOffset directly (spec.md §4.6:
		// "operand n + arg_offset[sub_expr_index]"); the final rewrite pass
		// reads that same adjusted value back out of refs rather than the
		// bare n, so offset survives into the rewritten STATE index.
		adjusted := n + argOffset
		pos := len(buf)
		buf = state.Instruction{OpcodeID: uint16(b.gen.reg.Size()), Operand: uint16(adjusted)}.Append(buf)
		refs = append(refs, sentinelRef{byteOffset: pos, n: adjusted})
		return buf, refs, nil
	}
	if v.Text == "MAXUINT256" || v.Text == "INFINITY" {
		return b.emitState(buf, b.constIndex(state.MaxUint256)), refs, nil
	}
	val, err := parseLiteral(v.Text)
	if err != nil {
		return buf, refs, fmt.Errorf("literal %q: %w", v.Text, err)
	}
	return b.emitState(buf, b.constIndex(val)), refs, nil
}

func (b *builder) emitOp(buf []byte, refs []sentinelRef, op *ast.Op, argOffset int) ([]byte, []sentinelRef, error) {
	for _, p := range op.Parameters {
		var err error
		buf, refs, err = b.emit(buf, refs, p, argOffset)
		if err != nil {
			return buf, refs, err
		}
	}

	switch op.Name {
	case "GTE":
		buf = state.Instruction{OpcodeID: b.gen.lt.ID}.Append(buf)
		buf = state.Instruction{OpcodeID: b.gen.iszero.ID}.Append(buf)
		return buf, refs, nil
	case "LTE":
		buf = state.Instruction{OpcodeID: b.gen.gt.ID}.Append(buf)
		buf = state.Instruction{OpcodeID: b.gen.iszero.ID}.Append(buf)
		return buf, refs, nil
	case "INEQ":
		buf = state.Instruction{OpcodeID: b.gen.eq.ID}.Append(buf)
		buf = state.Instruction{OpcodeID: b.gen.iszero.ID}.Append(buf)
		return buf, refs, nil
	}

	meta, ok := b.gen.reg.Lookup(op.Name)
	if !ok {
		return buf, refs, fmt.Errorf("internal: resolved op %q has no registry entry at code-gen time", op.Name)
	}
	buf = state.Instruction{OpcodeID: meta.ID, Operand: op.Operand}.Append(buf)
	return buf, refs, nil
}

// parseArgRef recognises the Value text produced for an arg(n) reference
// (see parser.parseArgRef), returning its index.
func parseArgRef(text string) (int, bool) {
	if !strings.HasPrefix(text, "arg(") || !strings.HasSuffix(text, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(text[4 : len(text)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseLiteral(text string) (*uint256.Int, error) {
	v := new(uint256.Int)
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		if err := v.SetFromHex(text); err != nil {
			return nil, err
		}
		return v, nil
	}
	if err := v.SetFromDecimal(text); err != nil {
		return nil, err
	}
	return v, nil
}

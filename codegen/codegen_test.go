// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rouzwelt/rainlang/opcode"
	"github.com/rouzwelt/rainlang/parser"
	"github.com/rouzwelt/rainlang/state"
)

// decodeAll splits src into its fixed-width instructions.
func decodeAll(t *testing.T, src []byte) []state.Instruction {
	t.Helper()
	if len(src)%state.InstructionSize != 0 {
		t.Fatalf("source length %d is not a multiple of %d", len(src), state.InstructionSize)
	}
	var out []state.Instruction
	for i := 0; i < len(src); i += state.InstructionSize {
		out = append(out, state.DecodeInstruction(src[i:i+state.InstructionSize]))
	}
	return out
}

func generate(t *testing.T, src string) state.Config {
	t.Helper()
	reg := opcode.New()
	tree := parser.New(reg, "").Parse(src)
	if tree.HasError() {
		t.Fatalf("%q: unexpected parse error(s): %v", src, tree.Diagnostics())
	}
	cfg, err := New(reg).Generate(tree)
	if err != nil {
		t.Fatalf("%q: unexpected codegen error: %v", src, err)
	}
	return cfg
}

func opcodeID(t *testing.T, reg *opcode.Registry, name string) uint16 {
	t.Helper()
	meta, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("opcode %q not found", name)
	}
	return meta.ID
}

func TestGenerate_NestedPrefix(t *testing.T) {
	cfg := generate(t, "add(9 5 6 mul(9 6))")

	if len(cfg.Constants) != 3 {
		t.Fatalf("want 3 constants, got %d", len(cfg.Constants))
	}
	for i, want := range []uint64{9, 5, 6} {
		if cfg.Constants[i].Uint64() != want {
			t.Errorf("constant %d: want %d, got %s", i, want, cfg.Constants[i])
		}
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("want 1 source, got %d", len(cfg.Sources))
	}

	reg := opcode.New()
	mulID, addID := opcodeID(t, reg, "MUL"), opcodeID(t, reg, "ADD")
	instrs := decodeAll(t, cfg.Sources[0])
	if len(instrs) != 7 {
		t.Fatalf("want 7 instructions, got %d", len(instrs))
	}
	if instrs[5].OpcodeID != mulID || instrs[5].Operand != 2 {
		t.Errorf("instr 5: want MUL/2, got id=%d operand=%d", instrs[5].OpcodeID, instrs[5].Operand)
	}
	if instrs[6].OpcodeID != addID || instrs[6].Operand != 4 {
		t.Errorf("instr 6: want ADD/4, got id=%d operand=%d", instrs[6].OpcodeID, instrs[6].Operand)
	}
}

func TestGenerate_LessThan(t *testing.T) {
	cfg := generate(t, "less_than(1 2)")
	if len(cfg.Constants) != 2 {
		t.Fatalf("want 2 constants, got %d", len(cfg.Constants))
	}
	reg := opcode.New()
	ltID := opcodeID(t, reg, "LESS_THAN")
	instrs := decodeAll(t, cfg.Sources[0])
	if len(instrs) != 3 {
		t.Fatalf("want 3 instructions, got %d", len(instrs))
	}
	if instrs[2].OpcodeID != ltID || instrs[2].Operand != 0 {
		t.Errorf("instr 2: want LESS_THAN/0, got id=%d operand=%d", instrs[2].OpcodeID, instrs[2].Operand)
	}
}

func TestGenerate_PseudoOpcodeGTE(t *testing.T) {
	cfg := generate(t, "gte(5 3)")
	reg := opcode.New()
	ltID, iszeroID := opcodeID(t, reg, "LESS_THAN"), opcodeID(t, reg, "ISZERO")
	instrs := decodeAll(t, cfg.Sources[0])
	if len(instrs) != 4 {
		t.Fatalf("want 4 instructions, got %d", len(instrs))
	}
	if instrs[2].OpcodeID != ltID {
		t.Errorf("instr 2: want LESS_THAN, got %d", instrs[2].OpcodeID)
	}
	if instrs[3].OpcodeID != iszeroID {
		t.Errorf("instr 3: want ISZERO, got %d", instrs[3].OpcodeID)
	}
}

func TestGenerate_ErrorIsFatal(t *testing.T) {
	reg := opcode.New()
	tree := parser.New(reg, "").Parse("not_an_opcode(1 2)")
	if !tree.HasError() {
		t.Fatal("expected the tree to carry an error")
	}
	cfg, err := New(reg).Generate(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Empty() {
		t.Fatalf("want the empty sentinel StateConfig, got %+v", cfg)
	}
}

// TestBuildBytes_NodeInput checks that build_bytes's single-node input
// variant lowers identically to passing the whole one-root tree.
func TestBuildBytes_NodeInput(t *testing.T) {
	reg := opcode.New()
	tree := parser.New(reg, "").Parse("add(1 2)")
	if tree.HasError() {
		t.Fatalf("unexpected parse error(s): %v", tree.Diagnostics())
	}
	root := tree.SubExprs[0].Roots[0]

	want, err := New(reg).Generate(tree)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := New(reg).BuildBytes(root, 0, nil)
	if err != nil {
		t.Fatalf("BuildBytes(node): %v", err)
	}
	if len(got.Sources) != 1 || string(got.Sources[0]) != string(want.Sources[0]) {
		t.Fatalf("BuildBytes(node) = %+v, want %+v", got, want)
	}
}

// TestBuildBytes_NodeSliceInput checks the []ast.Node input variant.
func TestBuildBytes_NodeSliceInput(t *testing.T) {
	reg := opcode.New()
	tree := parser.New(reg, "").Parse("add(1 2)")
	if tree.HasError() {
		t.Fatalf("unexpected parse error(s): %v", tree.Diagnostics())
	}
	got, err := New(reg).BuildBytes(tree.SubExprs[0].Roots, 0, nil)
	if err != nil {
		t.Fatalf("BuildBytes(nodes): %v", err)
	}
	if len(got.Sources) != 1 {
		t.Fatalf("want 1 source, got %d", len(got.Sources))
	}
}

// TestBuildBytes_SeedsConstantPool checks that a caller-supplied constant
// pool is kept ahead of this call's own constants, so indices resolved by
// an earlier BuildBytes call over a different source stay valid.
func TestBuildBytes_SeedsConstantPool(t *testing.T) {
	reg := opcode.New()
	tree := parser.New(reg, "").Parse("add(1 2)")
	if tree.HasError() {
		t.Fatalf("unexpected parse error(s): %v", tree.Diagnostics())
	}
	seed := []*uint256.Int{uint256.NewInt(42)}

	cfg, err := New(reg).BuildBytes(tree, 0, seed)
	if err != nil {
		t.Fatalf("BuildBytes: %v", err)
	}
	if len(cfg.Constants) != 3 {
		t.Fatalf("want 3 constants (1 seed + 2 new), got %d", len(cfg.Constants))
	}
	if cfg.Constants[0].Uint64() != 42 {
		t.Fatalf("seed constant was not kept first: %s", cfg.Constants[0])
	}

	instrs := decodeAll(t, cfg.Sources[0])
	stateID := opcodeID(t, reg, "STATE")
	if instrs[0].OpcodeID != stateID || instrs[0].Operand != (1<<1) {
		t.Errorf("instr 0: want STATE/index=1 (after the seeded constant), got id=%d operand=%d", instrs[0].OpcodeID, instrs[0].Operand)
	}
}

// TestBuildBytes_OffsetShiftsArgSentinels checks that offset is folded
// into the arg(n) rewrite (spec.md §4.6's arg_offset).
func TestBuildBytes_OffsetShiftsArgSentinels(t *testing.T) {
	reg := opcode.New()
	tree := parser.New(reg, "").Parse("add(arg(0) 1)")
	if tree.HasError() {
		t.Fatalf("unexpected parse error(s): %v", tree.Diagnostics())
	}

	base, err := New(reg).BuildBytes(tree, 0, nil)
	if err != nil {
		t.Fatalf("BuildBytes(offset=0): %v", err)
	}
	shifted, err := New(reg).BuildBytes(tree, 5, nil)
	if err != nil {
		t.Fatalf("BuildBytes(offset=5): %v", err)
	}

	baseArg := decodeAll(t, base.Sources[0])[0]
	shiftedArg := decodeAll(t, shifted.Sources[0])[0]
	if shiftedArg.Operand != baseArg.Operand+uint16(5<<1) {
		t.Errorf("arg(0) operand with offset 5 = %#04x, want %#04x (base %#04x shifted by 5 index slots)",
			shiftedArg.Operand, baseArg.Operand+uint16(5<<1), baseArg.Operand)
	}
}

func TestBuildBytes_RejectsUnsupportedInput(t *testing.T) {
	reg := opcode.New()
	if _, err := New(reg).BuildBytes("not a node", 0, nil); err == nil {
		t.Fatal("want an error for an unsupported input type")
	}
}

func TestGenerate_DoubleSemicolon(t *testing.T) {
	cfg := generate(t, ";;")
	if len(cfg.Sources) != 2 {
		t.Fatalf("want 2 sources, got %d", len(cfg.Sources))
	}
	for i, src := range cfg.Sources {
		if len(src) != 0 {
			t.Errorf("source %d: want empty, got %d bytes", i, len(src))
		}
	}
}

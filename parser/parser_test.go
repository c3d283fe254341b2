// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"testing"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/opcode"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newParser(t *testing.T) *Parser {
	t.Helper()
	return New(opcode.New(), "")
}

// mustParseOneRoot parses src, asserts it produced exactly one
// sub-expression with exactly one root node, and returns that node.
func mustParseOneRoot(t *testing.T, p *Parser, src string) ast.Node {
	t.Helper()
	tree := p.Parse(src)
	if len(tree.SubExprs) != 1 {
		t.Fatalf("%q: want 1 sub-expression, got %d", src, len(tree.SubExprs))
	}
	roots := tree.SubExprs[0].Roots
	if len(roots) != 1 {
		t.Fatalf("%q: want 1 root node, got %d", src, len(roots))
	}
	return roots[0]
}

func mustOp(t *testing.T, n ast.Node) *ast.Op {
	t.Helper()
	op, ok := n.(*ast.Op)
	if !ok {
		t.Fatalf("want *ast.Op, got %T", n)
	}
	if op.Error != nil {
		t.Fatalf("unexpected op error: %v", op.Error)
	}
	return op
}

func mustValue(t *testing.T, n ast.Node) *ast.Value {
	t.Helper()
	v, ok := n.(*ast.Value)
	if !ok {
		t.Fatalf("want *ast.Value, got %T", n)
	}
	return v
}

// ---------------------------------------------------------------------------
// Prefix notation
// ---------------------------------------------------------------------------

func TestParsePrefix_NestedParams(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "add(9 5 6 mul(9 6))"))

	if root.Name != "ADD" {
		t.Fatalf("name: want ADD, got %q", root.Name)
	}
	if len(root.Parameters) != 4 {
		t.Fatalf("want 4 parameters, got %d", len(root.Parameters))
	}
	if got := mustValue(t, root.Parameters[0]).Text; got != "9" {
		t.Errorf("param 0: want 9, got %q", got)
	}
	inner := mustOp(t, root.Parameters[3])
	if inner.Name != "MUL" || len(inner.Parameters) != 2 {
		t.Fatalf("param 3: want MUL/2, got %s/%d", inner.Name, len(inner.Parameters))
	}
	if !root.OperandResolved || root.Operand != 4 {
		t.Errorf("operand: want resolved=4 (param count), got resolved=%v value=%d", root.OperandResolved, root.Operand)
	}
}

func TestParsePrefix_LessThan(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "less_than(1 2)"))
	if root.Name != "LESS_THAN" {
		t.Fatalf("name: want LESS_THAN, got %q", root.Name)
	}
	if root.Operand != 0 {
		t.Errorf("operand: want 0, got %d", root.Operand)
	}
	if root.OutputArity != 1 {
		t.Errorf("output arity: want 1, got %d", root.OutputArity)
	}
}

// ---------------------------------------------------------------------------
// Pseudo-opcodes
// ---------------------------------------------------------------------------

func TestParsePseudoOpcode_GTE(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "gte(5 3)"))
	if root.Name != "GTE" {
		t.Fatalf("name: want GTE, got %q", root.Name)
	}
	if !root.OutputResolved || root.OutputArity != 1 {
		t.Errorf("output arity: want resolved=1, got resolved=%v value=%d", root.OutputResolved, root.OutputArity)
	}
}

func TestParsePseudoOpcode_WrongArity(t *testing.T) {
	p := newParser(t)
	root := mustParseOneRoot(t, p, "gte(5 3 1)")
	op, ok := root.(*ast.Op)
	if !ok {
		t.Fatalf("want *ast.Op, got %T", root)
	}
	if op.Error == nil {
		t.Fatal("want an error for a 3-parameter GTE, got none")
	}
}

// ---------------------------------------------------------------------------
// Infix notation
// ---------------------------------------------------------------------------

func TestParseInfix_LoweredToOp(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "1 add 2 add 3"))
	if root.Name != "ADD" {
		t.Fatalf("name: want ADD, got %q", root.Name)
	}
	if !root.Infix {
		t.Error("want Infix flag set")
	}
	if len(root.Parameters) != 3 {
		t.Fatalf("want 3 parameters, got %d", len(root.Parameters))
	}
}

func TestParseInfix_MismatchedOperators(t *testing.T) {
	p := newParser(t)
	tree := p.Parse("1 add 2 mul 3")
	root := tree.SubExprs[0].Roots
	if len(root) != 1 {
		t.Fatalf("want 1 root, got %d", len(root))
	}
	if !ast.HasError(root[0]) {
		t.Fatalf("want an error node for mismatched infix operators, got %#v", root[0])
	}
}

// ---------------------------------------------------------------------------
// Postfix notation
// ---------------------------------------------------------------------------

func TestParsePostfix(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "(1 2)add"))
	if root.Name != "ADD" {
		t.Fatalf("name: want ADD, got %q", root.Name)
	}
	if len(root.Parameters) != 2 {
		t.Fatalf("want 2 parameters, got %d", len(root.Parameters))
	}
}

// ---------------------------------------------------------------------------
// Operand arguments
// ---------------------------------------------------------------------------

func TestParseOperandArgs_Context(t *testing.T) {
	p := newParser(t)
	root := mustOp(t, mustParseOneRoot(t, p, "context<2 6>()"))
	if root.Name != "CONTEXT" {
		t.Fatalf("name: want CONTEXT, got %q", root.Name)
	}
	if root.Operand != 0x0206 {
		t.Errorf("operand: want 0x0206, got %#x", root.Operand)
	}
}

func TestParseOperandArgs_DanglingBracket(t *testing.T) {
	p := newParser(t)
	tree := p.Parse("context<2 6")
	root := tree.SubExprs[0].Roots
	if len(root) != 1 || !ast.HasError(root[0]) {
		t.Fatalf("want a single error node, got %#v", root)
	}
}

// ---------------------------------------------------------------------------
// Multiple empty sub-expressions
// ---------------------------------------------------------------------------

func TestParse_DoubleSemicolon(t *testing.T) {
	p := newParser(t)
	tree := p.Parse(";;")
	if len(tree.SubExprs) != 2 {
		t.Fatalf("want 2 sub-expressions, got %d", len(tree.SubExprs))
	}
	for i, se := range tree.SubExprs {
		if len(se.Roots) != 0 {
			t.Errorf("sub-expression %d: want 0 roots, got %d", i, len(se.Roots))
		}
	}
}

// ---------------------------------------------------------------------------
// arg(n) and placeholder values
// ---------------------------------------------------------------------------

func TestParseArgRef(t *testing.T) {
	p := newParser(t)
	v := mustValue(t, mustParseOneRoot(t, p, "arg(0)"))
	if v.Text != "arg(0)" {
		t.Errorf("want arg(0), got %q", v.Text)
	}
}

func TestParsePlaceholder(t *testing.T) {
	p := newParser(t)
	v := mustValue(t, mustParseOneRoot(t, p, "_"))
	if !v.IsPlaceholder("_") {
		t.Errorf("want a placeholder value, got %q", v.Text)
	}
}

// ---------------------------------------------------------------------------
// Unknown opcode
// ---------------------------------------------------------------------------

func TestParseUnknownOpcode(t *testing.T) {
	p := newParser(t)
	root := mustParseOneRoot(t, p, "not_an_opcode(1 2)")
	op, ok := root.(*ast.Op)
	if !ok {
		t.Fatalf("want *ast.Op, got %T", root)
	}
	if op.Error == nil {
		t.Fatal("want an unknown-opcode error")
	}
}

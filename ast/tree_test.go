// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

import "testing"

func TestTreeHasErrorDetectsFreeErr(t *testing.T) {
	tree := &Tree{SubExprs: []SubExpr{{Roots: []Node{NewErr("bad", Span{0, 3})}}}}
	if !tree.HasError() {
		t.Error("HasError() = false, want true for a tree containing an *Err root")
	}
}

func TestTreeHasErrorDetectsNestedOpError(t *testing.T) {
	inner := &Op{Name: "ADD", FullSpan: Span{0, 5}, Error: &Diagnostic{Message: "bad arity", Span: Span{0, 5}}}
	outer := &Op{Name: "MUL", FullSpan: Span{0, 10}, Parameters: []Node{inner}}
	tree := &Tree{SubExprs: []SubExpr{{Roots: []Node{outer}}}}
	if !tree.HasError() {
		t.Error("HasError() = false, want true for a nested Op.Error")
	}
}

func TestTreeHasErrorFalseOnClean(t *testing.T) {
	tree := &Tree{SubExprs: []SubExpr{{Roots: []Node{&Value{Text: "1", Span: Span{0, 1}}}}}}
	if tree.HasError() {
		t.Error("HasError() = true, want false for an error-free tree")
	}
}

func TestTreeDiagnosticsOrder(t *testing.T) {
	e1 := NewErr("first", Span{0, 1})
	opErr := &Diagnostic{Message: "second", Span: Span{2, 3}}
	op := &Op{Name: "ADD", FullSpan: Span{2, 3}, Error: opErr}
	tree := &Tree{SubExprs: []SubExpr{{Roots: []Node{e1, op}}}}

	diags := tree.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("Diagnostics() returned %d entries, want 2", len(diags))
	}
	if diags[0].Message != "first" || diags[1].Message != "second" {
		t.Errorf("Diagnostics() = %+v, want [first, second] in tree-walk order", diags)
	}
}

func TestWalkVisitsParentBeforeParameters(t *testing.T) {
	leaf := &Value{Text: "1", Span: Span{0, 1}}
	op := &Op{Name: "ADD", FullSpan: Span{0, 3}, Parameters: []Node{leaf}}
	tree := &Tree{SubExprs: []SubExpr{{Roots: []Node{op}}}}

	var visited []Node
	tree.Walk(func(n Node) { visited = append(visited, n) })
	if len(visited) != 2 || visited[0] != Node(op) || visited[1] != Node(leaf) {
		t.Errorf("Walk order = %v, want [op, leaf]", visited)
	}
}

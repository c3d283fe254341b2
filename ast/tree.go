// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

// SubExpr is one semicolon-delimited sub-expression: its source span plus
// the root-level nodes parsed from it (a sub-expression may hold several
// sibling roots, e.g. "1 2 add" at the top level before any wrapping op).
type SubExpr struct {
	SourceSpan Span
	Roots      []Node
}

// Tree is a mapping from sub-expression index to its parsed content.
// Sub-expression i becomes source i of the compiled StateConfig.
type Tree struct {
	SubExprs []SubExpr
}

// HasError reports whether any node anywhere in the tree (at any depth) is
// an error node or an Op with a resolution error. Code generation treats
// this as fatal (spec.md §4.6, §7, testable property 6).
func (t *Tree) HasError() bool {
	for _, se := range t.SubExprs {
		for _, root := range se.Roots {
			if walkHasError(root) {
				return true
			}
		}
	}
	return false
}

func walkHasError(n Node) bool {
	if HasError(n) {
		return true
	}
	op, ok := n.(*Op)
	if !ok {
		return false
	}
	for _, p := range op.Parameters {
		if walkHasError(p) {
			return true
		}
	}
	return false
}

// DeepHasError reports whether n, or anything in its parameter subtree, is
// an error node or an Op with a resolution error (spec.md §4.6, §7). It is
// Tree.HasError's per-root check, exported so callers driving a bare node
// or node list through build_bytes (rather than a whole Tree) can apply
// the same fatal-error rule.
func DeepHasError(n Node) bool {
	return walkHasError(n)
}

// Walk calls visit for every node in the tree in pre-order (parent before
// children, siblings in textual order, sub-expressions in index order).
func (t *Tree) Walk(visit func(Node)) {
	for _, se := range t.SubExprs {
		for _, root := range se.Roots {
			walk(root, visit)
		}
	}
}

func walk(n Node, visit func(Node)) {
	visit(n)
	if op, ok := n.(*Op); ok {
		for _, p := range op.Parameters {
			walk(p, visit)
		}
	}
}

// Diagnostics collects every Diagnostic carried anywhere in the tree, in
// tree-walk order, for reporting to the user.
func (t *Tree) Diagnostics() []Diagnostic {
	var out []Diagnostic
	t.Walk(func(n Node) {
		switch v := n.(type) {
		case *Err:
			out = append(out, v.Diagnostic)
		case *Op:
			if v.Error != nil {
				out = append(out, *v.Error)
			}
		}
	})
	return out
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the parse-tree node types produced by parsing a Rain
// expression. A node is always exactly one of Value, Op, or Err — a closed
// sum type, not an open inheritance hierarchy (spec.md "Design notes").
// Callers must type-switch on the concrete type rather than probing fields.
package ast

import "fmt"

// Span is a byte-offset range into the pre-trim original input text.
// Every node's Span refers to the original text, never to a trimmed or
// normalized copy of it (spec.md §3 "Invariants").
type Span struct {
	Start int
	End   int
}

// String renders the span as "start:end" for diagnostic messages.
func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Start, s.End) }

// Diagnostic is an in-tree error: a message paired with the source span it
// describes. Diagnostics never abort parsing — see Err and Op.Error.
type Diagnostic struct {
	Message string
	Span    Span
}

func (d Diagnostic) Error() string { return fmt.Sprintf("%s at %s", d.Message, d.Span) }

// Node is the marker interface implemented by every parse-tree node.
// It is satisfied by exactly three concrete types: *Value, *Op, *Err.
type Node interface {
	// Pos returns the node's source span.
	Pos() Span
	// node is unexported so Node cannot be implemented outside this package,
	// keeping the variant closed.
	node()
}

// Value is a literal integer, the configurable placeholder ("_" by
// default), an arg(n) reference, or the MaxUint256/Infinity sentinel.
type Value struct {
	Text string
	Span Span
}

func (v *Value) Pos() Span { return v.Span }
func (v *Value) node()     {}

// IsPlaceholder reports whether this value is the multi-output placeholder
// sentinel for the given placeholder character.
func (v *Value) IsPlaceholder(placeholder string) bool { return v.Text == placeholder }

// OperandArgs holds the integer literals supplied via <...> syntax
// together with the span of the whole "<...>" clause.
type OperandArgs struct {
	Values []int64
	Span   Span
}

// Op is an operator node, produced from prefix `op(args)`, postfix
// `args op`, or infix `a op b op c` notation (all three lower to the same
// shape once the tree resolver runs — spec.md §4.4).
type Op struct {
	Name     string // normalized canonical name, resolved against the registry
	NameSpan Span

	// Operand and OutputArity are Unresolved until the tree resolver runs
	// (spec.md's `u16 | Unresolved` and `nat | Unresolved`).
	Operand         uint16
	OperandResolved bool
	OutputArity     int
	OutputResolved  bool

	FullSpan   Span
	ParenSpans []Span // open-paren, close-paren spans, in that order

	Parameters []Node

	OperandArgs *OperandArgs // nil if no <...> clause was supplied

	// Data carries the opcode's documentation payload, attached once the
	// node is resolved against the registry; nil beforehand.
	Data any

	// Error is non-nil when this Op node itself failed resolution (wrong
	// arity, out-of-range operand argument, ...). A non-nil Error on any
	// node anywhere in the tree makes code generation fail (spec.md §7).
	Error *Diagnostic

	// Infix records that this node was produced by lowering an infix
	// notation group, purely informational (spec.md's `infix_flag`).
	Infix bool
}

func (o *Op) Pos() Span { return o.FullSpan }
func (o *Op) node()     {}

// Err is a free-standing parse error not attached to any Op node (a
// malformed operand-argument clause, an unmatched closing paren with no
// candidate opcode to host it, and so on).
type Err struct {
	Diagnostic
}

func (e *Err) Pos() Span { return e.Diagnostic.Span }
func (e *Err) node()     {}

// NewErr constructs an *Err node.
func NewErr(message string, span Span) *Err {
	return &Err{Diagnostic{Message: message, Span: span}}
}

// HasError reports whether n is itself an error, or an Op whose resolution
// failed. It does not recurse into children — see Walk/DeepHasError.
func HasError(n Node) bool {
	switch v := n.(type) {
	case *Err:
		return true
	case *Op:
		return v.Error != nil
	default:
		return false
	}
}

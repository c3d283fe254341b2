// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package opcode

import mapset "github.com/deckarep/golang-set/v2"

// Arity is the result of an opcode's input-arity function: either a fixed
// count, or Dynamic meaning the opcode accepts any parameter count that
// satisfies its ParamsValid predicate (spec.md §3, "input_arity").
type Arity struct {
	Dynamic bool
	Count   int
}

// Fixed constructs a fixed Arity of n.
func Fixed(n int) Arity { return Arity{Count: n} }

// DynamicArity is the sentinel returned by opcodes whose parameter count is
// bounded only by ParamsValid, not by a single fixed number.
var DynamicArity = Arity{Dynamic: true}

// Doc is the opcode's documentation payload, surfaced by `rainc opcodes`
// and the /v1/opcodes HTTP endpoint.
type Doc struct {
	Name        string
	Description string
	Data        any
}

// Meta is one opcode's full descriptor (spec.md §3, "Opcode descriptor").
type Meta struct {
	// ID is the opcode's stable numeric tag. Pseudo-opcodes (GTE, LTE,
	// INEQ) have no stable id — HasID is false for them, and ID must not
	// be read (spec.md §4.1).
	ID    uint16
	HasID bool

	CanonicalName string
	Aliases       mapset.Set[string]

	InputArity  func(operand uint16) Arity
	OutputArity func(operand uint16) int
	ParamsValid func(paramCount int) bool

	Codec Codec
	Doc   Doc
}

// Names returns the canonical name followed by every alias, for
// introspection / disassembly.
func (m *Meta) Names() []string {
	out := make([]string, 0, 1+m.Aliases.Cardinality())
	out = append(out, m.CanonicalName)
	for _, a := range m.Aliases.ToSlice() {
		out = append(out, a)
	}
	return out
}

// IsPseudo reports whether m describes a pseudo-opcode (GTE, LTE, INEQ)
// synthesised by the parser rather than emitted directly (spec.md §4.1).
func (m *Meta) IsPseudo() bool { return !m.HasID }

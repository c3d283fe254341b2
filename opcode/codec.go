// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package opcode implements the opcode metadata registry: one OperandCodec
// and one OpMeta descriptor per VM instruction, keyed by a single
// normalized alias table (spec.md §4.1, "Registry lookups").
package opcode

import "fmt"

// ArgRule constrains the i-th user-supplied operand argument (the i-th
// integer inside a "<...>" clause) to a numeric range, optionally as a
// function of the current parameter count (spec.md §3, "Operand codec").
type ArgRule struct {
	// Name identifies the argument for error messages ("inputSize", "row", ...).
	Name string
	// InRange reports whether value is acceptable given the node's current
	// parameter count.
	InRange func(value int64, paramCount int) bool
}

// Codec packs a small vector of integer operand arguments into the single
// 16-bit operand field co-emitted with an opcode id, and decodes it back.
type Codec struct {
	// IsZero means the operand is always 0 and the opcode accepts no
	// operand arguments at all (spec.md §3).
	IsZero bool

	// ArgRules has one entry per expected operand argument, in order.
	ArgRules []ArgRule

	// Encode packs args (already validated against ArgRules) plus the
	// node's parameter count into a 16-bit operand. Encoders must be total
	// over every value accepted by ArgRules (spec.md §8, property 1).
	Encode func(args []int64, paramCount int) (uint16, error)

	// Decode is the left inverse of Encode: decode(encode(a, |a|)) == a,
	// field-wise, for every valid a (spec.md §8, property 1). A small
	// number of opcodes — documented at their definition — only reconstruct
	// the *inputs to* Encode rather than the literal argument vector; see
	// IERC1155_BALANCE_OF_BATCH.
	Decode func(operand uint16) []int64
}

// ValidateArgs checks every supplied argument against its ArgRule and
// returns the index of the first violation, or -1 if all pass.
func (c Codec) ValidateArgs(args []int64, paramCount int) int {
	for i, v := range args {
		if i >= len(c.ArgRules) {
			return i
		}
		if !c.ArgRules[i].InRange(v, paramCount) {
			return i
		}
	}
	return -1
}

// ZeroCodec is shared by every opcode whose operand is always 0
// (BLOCK_NUMBER, EAGER_IF, LESS_THAN, GREATER_THAN, EQUAL_TO, ISZERO, ...).
var ZeroCodec = Codec{
	IsZero: true,
	Encode: func(args []int64, paramCount int) (uint16, error) { return 0, nil },
	Decode: func(operand uint16) []int64 { return nil },
}

// ---------------------------------------------------------------------------
// Bitfield packing helpers
// ---------------------------------------------------------------------------
//
// Most non-trivial codecs pack 2-3 small unsigned fields into the 16-bit
// operand at fixed bit offsets. These helpers centralize that so each
// codec definition in defs.go only has to state its layout once.

// packField validates that value fits in width bits before shifting it
// into place, returning an error naming the field on overflow.
func packField(name string, value int64, shift, width uint) (uint16, error) {
	max := int64(1) << width
	if value < 0 || value >= max {
		return 0, fmt.Errorf("operand field %s out of range: %d does not fit in %d bits", name, value, width)
	}
	return uint16(value) << shift, nil
}

// unpackField extracts a width-bit field at the given shift from operand.
func unpackField(operand uint16, shift, width uint) int64 {
	mask := uint16((1 << width) - 1)
	return int64((operand >> shift) & mask)
}

// DynamicCodec builds the codec shared by every dynamic-arity reducer
// (ADD, MUL, SUB, DIV, MOD, MIN, MAX, EVERY, ANY, HASH, ...): the operand
// *is* the parameter count, so encoding ignores any user-supplied operand
// arguments and simply mirrors paramCount back out.
func DynamicCodec() Codec {
	return Codec{
		Encode: func(args []int64, paramCount int) (uint16, error) {
			return uint16(paramCount), nil
		},
		Decode: func(operand uint16) []int64 { return []int64{int64(operand)} },
	}
}

// SingleValueCodec builds the codec for opcodes that pack one unsigned
// value directly into the operand (STORAGE, DO_WHILE's source index, ...).
func SingleValueCodec(name string, inRange func(v int64, paramCount int) bool) Codec {
	return Codec{
		ArgRules: []ArgRule{{Name: name, InRange: inRange}},
		Encode: func(args []int64, paramCount int) (uint16, error) {
			return packField(name, args[0], 0, 16)
		},
		Decode: func(operand uint16) []int64 {
			return []int64{int64(operand)}
		},
	}
}

// SignedScaleCodec implements SCALE_BY's operand: a signed value in
// [-128, 127] stored as two's-complement in the low 8 bits.
func SignedScaleCodec() Codec {
	return Codec{
		ArgRules: []ArgRule{{
			Name: "scale",
			InRange: func(v int64, _ int) bool {
				return v >= -128 && v <= 127
			},
		}},
		Encode: func(args []int64, _ int) (uint16, error) {
			return uint16(uint8(int8(args[0]))), nil
		},
		Decode: func(operand uint16) []int64 {
			return []int64{int64(int8(uint8(operand)))}
		},
	}
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package state defines the deployable artifact produced by compiling a
// Rain expression: a StateConfig pairing a 256-bit constant pool with a
// set of packed-bytecode sources, plus the fixed-width instruction
// encoding shared by every source.
package state

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// InstructionSize is the width, in bytes, of a single packed instruction:
// a 16-bit opcode id followed by a 16-bit operand, both little-endian.
const InstructionSize = 4

// Instruction is a single emitted VM instruction.
type Instruction struct {
	OpcodeID uint16
	Operand  uint16
}

// Append encodes the instruction in little-endian [opcode][operand] form
// and appends it to buf, returning the extended slice.
func (in Instruction) Append(buf []byte) []byte {
	var tmp [InstructionSize]byte
	binary.LittleEndian.PutUint16(tmp[0:2], in.OpcodeID)
	binary.LittleEndian.PutUint16(tmp[2:4], in.Operand)
	return append(buf, tmp[:]...)
}

// DecodeInstruction reads a single instruction from the front of buf.
func DecodeInstruction(buf []byte) Instruction {
	return Instruction{
		OpcodeID: binary.LittleEndian.Uint16(buf[0:2]),
		Operand:  binary.LittleEndian.Uint16(buf[2:4]),
	}
}

// Config is the deployable artifact lowered from a parse tree: an ordered
// constant pool plus one packed-bytecode buffer per source sub-expression.
// Source index 0 is always the entry point.
type Config struct {
	Constants []*uint256.Int
	Sources   [][]byte
}

// Empty reports whether this is the sentinel {nil/empty, nil/empty}
// StateConfig returned whenever code generation aborts due to an error
// node anywhere in the parse tree (spec.md §4.6, §7).
func (c Config) Empty() bool {
	return len(c.Constants) == 0 && len(c.Sources) == 0
}

// EmptyConfig constructs the fatal-error sentinel StateConfig.
func EmptyConfig() Config {
	return Config{Constants: nil, Sources: nil}
}

// MaxUint256 is the 256-bit all-ones value (hex 0xff…ff, 32 bytes) of
// MaxUint256 / Infinity, interned as a constant wherever the sentinel
// literal appears in source (spec.md §4.6).
var MaxUint256 = func() *uint256.Int {
	max := new(uint256.Int)
	return max.Not(max) // 0 - 1 == all bits set
}()

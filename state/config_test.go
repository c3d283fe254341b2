// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package state

import "testing"

func TestInstructionRoundTrip(t *testing.T) {
	in := Instruction{OpcodeID: 0x0102, Operand: 0x0304}
	buf := in.Append(nil)
	if len(buf) != InstructionSize {
		t.Fatalf("Append produced %d bytes, want %d", len(buf), InstructionSize)
	}
	got := DecodeInstruction(buf)
	if got != in {
		t.Errorf("DecodeInstruction(Append(%+v)) = %+v", in, got)
	}
}

func TestEmptyConfig(t *testing.T) {
	c := EmptyConfig()
	if !c.Empty() {
		t.Error("EmptyConfig().Empty() = false, want true")
	}
}

func TestConfigNotEmpty(t *testing.T) {
	c := Config{Sources: [][]byte{{0, 0, 0, 0}}}
	if c.Empty() {
		t.Error("Config with one source reported Empty() = true")
	}
}

func TestMaxUint256IsAllBitsSet(t *testing.T) {
	if MaxUint256.Sign() == 0 {
		t.Fatal("MaxUint256 is zero")
	}
	hex := MaxUint256.Hex()
	want := "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	if hex != want {
		t.Errorf("MaxUint256.Hex() = %s, want %s", hex, want)
	}
}

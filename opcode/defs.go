// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package opcode

import mapset "github.com/deckarep/golang-set/v2"

// Opcode ids. opcodeCount must stay last; it equals the number of built-in
// opcodes, which is what Registry.Size reports for a default registry and
// so the sentinel id the code generator uses for the arg(n) placeholder
// instruction (spec.md §4.6).
const (
	BlockNumber Opcode = iota
	EagerIf
	LessThan
	GreaterThan
	EqualTo
	IsZero
	Call
	Context
	LoopN
	State
	Storage
	DoWhile
	ScaleBy
	Add
	Sub
	Mul
	Div
	Mod
	Min
	Max
	Every
	Any
	Hash
	Ensure
	SelectLte
	ITierV2Report
	UpdateTimesForTierRange
	IERC1155BalanceOfBatch
	ISaleV2Token
	ISaleV2TotalReserveReceived

	opcodeCount
)

// Opcode is a stable numeric opcode id.
type Opcode = uint16

func aliases(names ...string) mapset.Set[string] {
	return mapset.NewSet(names...)
}

func zeroOpMeta(id Opcode, name string, paramCount, outputArity int, doc Doc, names ...string) *Meta {
	return &Meta{
		ID:            id,
		HasID:         true,
		CanonicalName: name,
		Aliases:       aliases(names...),
		InputArity:    func(uint16) Arity { return Fixed(paramCount) },
		OutputArity:   func(uint16) int { return outputArity },
		ParamsValid:   func(n int) bool { return n == paramCount },
		Codec:         ZeroCodec,
		Doc:           doc,
	}
}

func dynamicOpMeta(id Opcode, name string, minParams int, outputArity int, doc Doc, names ...string) *Meta {
	return &Meta{
		ID:            id,
		HasID:         true,
		CanonicalName: name,
		Aliases:       aliases(names...),
		InputArity:    func(uint16) Arity { return DynamicArity },
		OutputArity:   func(uint16) int { return outputArity },
		ParamsValid:   func(n int) bool { return n > minParams },
		Codec:         DynamicCodec(),
		Doc:           doc,
	}
}

// Defaults builds the built-in opcode table described by spec.md §4.1.
func Defaults() []*Meta {
	return []*Meta{
		zeroOpMeta(BlockNumber, "BLOCK_NUMBER", 0, 1, Doc{
			Name: "BLOCK_NUMBER", Description: "the current block number",
		}, "BLOCKNUMBER"),

		zeroOpMeta(EagerIf, "EAGER_IF", 3, 1, Doc{
			Name: "EAGER_IF", Description: "eagerly evaluated ternary: condition, true-branch, false-branch",
		}, "IF"),

		zeroOpMeta(LessThan, "LESS_THAN", 2, 1, Doc{
			Name: "LESS_THAN", Description: "1 if the first operand is less than the second, else 0",
		}, "LT"),

		zeroOpMeta(GreaterThan, "GREATER_THAN", 2, 1, Doc{
			Name: "GREATER_THAN", Description: "1 if the first operand is greater than the second, else 0",
		}, "GT"),

		zeroOpMeta(EqualTo, "EQUAL_TO", 2, 1, Doc{
			Name: "EQUAL_TO", Description: "1 if both operands are equal, else 0",
		}, "EQ"),

		zeroOpMeta(IsZero, "ISZERO", 1, 1, Doc{
			Name: "ISZERO", Description: "1 if the operand is zero, else 0",
		}, "IS_ZERO"),

		callMeta(),
		contextMeta(),
		loopNMeta(),
		stateMeta(),

		{
			ID: Storage, HasID: true, CanonicalName: "STORAGE",
			Aliases:     aliases(),
			InputArity:  func(uint16) Arity { return Fixed(0) },
			OutputArity: func(uint16) int { return 1 },
			ParamsValid: func(n int) bool { return n == 0 },
			Codec: SingleValueCodec("slot", func(v int64, _ int) bool {
				return v >= 0 && v < 1<<16
			}),
			Doc: Doc{Name: "STORAGE", Description: "reads a value from contract storage at the given slot"},
		},

		doWhileMeta(),
		scaleByMeta(),

		dynamicOpMeta(Add, "ADD", 1, 1, Doc{Name: "ADD", Description: "sums all operands"}, "SUM"),
		dynamicOpMeta(Sub, "SUB", 1, 1, Doc{Name: "SUB", Description: "subtracts operands left to right"}, "SUBTRACT"),
		dynamicOpMeta(Mul, "MUL", 1, 1, Doc{Name: "MUL", Description: "multiplies all operands"}, "MULTIPLY"),
		dynamicOpMeta(Div, "DIV", 1, 1, Doc{Name: "DIV", Description: "divides operands left to right"}, "DIVIDE"),
		dynamicOpMeta(Mod, "MOD", 1, 1, Doc{Name: "MOD", Description: "remainder of dividing operands left to right"}),
		dynamicOpMeta(Min, "MIN", 1, 1, Doc{Name: "MIN", Description: "the smallest of all operands"}),
		dynamicOpMeta(Max, "MAX", 1, 1, Doc{Name: "MAX", Description: "the largest of all operands"}),
		dynamicOpMeta(Every, "EVERY", 1, 1, Doc{Name: "EVERY", Description: "the last operand if all are truthy, else 0"}),
		dynamicOpMeta(Any, "ANY", 1, 1, Doc{Name: "ANY", Description: "the first truthy operand, else 0"}),
		dynamicOpMeta(Hash, "HASH", 0, 1, Doc{Name: "HASH", Description: "keccak256 of the concatenated operands"}),
		dynamicOpMeta(Ensure, "ENSURE", 0, 0, Doc{Name: "ENSURE", Description: "reverts unless every operand is truthy"}, "REQUIRE"),

		selectLteMeta(),
		iTierV2ReportMeta(),
		updateTimesForTierRangeMeta(),
		ierc1155BalanceOfBatchMeta(),

		zeroOpMeta(ISaleV2Token, "ISALEV2_TOKEN", 0, 1, Doc{
			Name:        "ISALEV2_TOKEN",
			Description: "the address of the sale contract's token",
		}),
		zeroOpMeta(ISaleV2TotalReserveReceived, "ISALEV2_TOTAL_RESERVE_RECEIVED", 0, 1, Doc{
			Name:        "ISALEV2_TOTAL_RESERVE_RECEIVED",
			Description: "the total reserve token amount received by the sale",
		}),
	}
}

func callMeta() *Meta {
	return &Meta{
		ID: Call, HasID: true, CanonicalName: "CALL",
		Aliases: aliases(),
		InputArity: func(operand uint16) Arity {
			return Fixed(int(unpackField(operand, 0, 3)))
		},
		OutputArity: func(operand uint16) int { return int(unpackField(operand, 3, 2)) },
		ParamsValid: func(n int) bool { return n >= 0 && n < 8 },
		Codec: Codec{
			ArgRules: []ArgRule{
				{Name: "inputSize", InRange: func(v int64, paramCount int) bool {
					return v >= 0 && v < 8 && v == int64(paramCount)
				}},
				{Name: "outputSize", InRange: func(v int64, _ int) bool { return v > 0 && v < 4 }},
				{Name: "sourceIndex", InRange: func(v int64, _ int) bool { return v > 0 && v < 8 }},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				a, err := packField("inputSize", args[0], 0, 3)
				if err != nil {
					return 0, err
				}
				b, err := packField("outputSize", args[1], 3, 2)
				if err != nil {
					return 0, err
				}
				c, err := packField("sourceIndex", args[2], 5, 11)
				if err != nil {
					return 0, err
				}
				return a | b | c, nil
			},
			Decode: func(operand uint16) []int64 {
				return []int64{
					unpackField(operand, 0, 3),
					unpackField(operand, 3, 2),
					unpackField(operand, 5, 11),
				}
			},
		},
		Doc: Doc{Name: "CALL", Description: "calls another source, passing inputSize stack values and returning outputSize values"},
	}
}

func contextMeta() *Meta {
	return &Meta{
		ID: Context, HasID: true, CanonicalName: "CONTEXT",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return Fixed(0) },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n == 0 },
		Codec: Codec{
			ArgRules: []ArgRule{
				{Name: "column", InRange: func(v int64, _ int) bool { return v >= 0 && v < 256 }},
				{Name: "row", InRange: func(v int64, _ int) bool { return v >= 0 && v < 256 }},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				row, err := packField("row", args[1], 0, 8)
				if err != nil {
					return 0, err
				}
				col, err := packField("column", args[0], 8, 8)
				if err != nil {
					return 0, err
				}
				return row | col, nil
			},
			Decode: func(operand uint16) []int64 {
				return []int64{unpackField(operand, 8, 8), unpackField(operand, 0, 8)}
			},
		},
		Doc: Doc{Name: "CONTEXT", Description: "reads the value at (column, row) in the execution context grid"},
	}
}

func loopNMeta() *Meta {
	return &Meta{
		ID: LoopN, HasID: true, CanonicalName: "LOOP_N",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return Fixed(0) },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n == 0 },
		Codec: Codec{
			ArgRules: []ArgRule{
				{Name: "n", InRange: func(v int64, _ int) bool { return v >= 0 && v < 16 }},
				{Name: "sourceIndex", InRange: func(v int64, _ int) bool { return v > 0 && v < 16 }},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				n, err := packField("n", args[0], 0, 4)
				if err != nil {
					return 0, err
				}
				src, err := packField("sourceIndex", args[1], 4, 4)
				if err != nil {
					return 0, err
				}
				return n | src, nil
			},
			Decode: func(operand uint16) []int64 {
				return []int64{unpackField(operand, 0, 4), unpackField(operand, 4, 4)}
			},
		},
		Doc: Doc{Name: "LOOP_N", Description: "runs the source sourceIndex exactly n times"},
	}
}

func stateMeta() *Meta {
	return &Meta{
		ID: State, HasID: true, CanonicalName: "STATE",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return Fixed(0) },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n == 0 },
		Codec: Codec{
			ArgRules: []ArgRule{
				{Name: "kind", InRange: func(v int64, _ int) bool { return v == 0 || v == 1 }},
				{Name: "index", InRange: func(v int64, _ int) bool { return v >= 0 && v < 128 }},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				kind, err := packField("kind", args[0], 0, 1)
				if err != nil {
					return 0, err
				}
				idx, err := packField("index", args[1], 1, 7)
				if err != nil {
					return 0, err
				}
				return kind | idx, nil
			},
			Decode: func(operand uint16) []int64 {
				return []int64{unpackField(operand, 0, 1), unpackField(operand, 1, 7)}
			},
		},
		Doc: Doc{Name: "STATE", Description: "pushes a constant (kind=0) or a stack value (kind=1) at the given index"},
	}
}

func doWhileMeta() *Meta {
	return &Meta{
		ID: DoWhile, HasID: true, CanonicalName: "DO_WHILE",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return DynamicArity },
		OutputArity: func(uint16) int { return 0 },
		ParamsValid: func(n int) bool { return n >= 2 },
		Codec:       SingleValueCodec("sourceIndex", func(v int64, _ int) bool { return v >= 0 && v < 256 }),
		Doc:         Doc{Name: "DO_WHILE", Description: "runs the source sourceIndex while its last stack value is truthy"},
	}
}

func scaleByMeta() *Meta {
	return &Meta{
		ID: ScaleBy, HasID: true, CanonicalName: "SCALE_BY",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return Fixed(1) },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n == 1 },
		Codec:       SignedScaleCodec(),
		Doc:         Doc{Name: "SCALE_BY", Description: "scales a fixed-point value by 10^scale, scale signed in [-128,127]"},
	}
}

func selectLteMeta() *Meta {
	return &Meta{
		ID: SelectLte, HasID: true, CanonicalName: "SELECT_LTE",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return DynamicArity },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n > 1 },
		Codec: Codec{
			// Argument order is [mode, logic, length]; length is
			// constrained against paramCount directly (spec.md §9,
			// redesign note 5: the true constraint is
			// param_count == length + 1, not the documented
			// param_count > 1 validator alone).
			ArgRules: []ArgRule{
				{Name: "mode", InRange: func(v int64, _ int) bool { return v >= 0 && v <= 2 }},
				{Name: "logic", InRange: func(v int64, _ int) bool { return v == 0 || v == 1 }},
				{Name: "length", InRange: func(v int64, paramCount int) bool {
					return v >= 1 && v <= 31 && paramCount == int(v)+1
				}},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				length, err := packField("length", args[2], 0, 5)
				if err != nil {
					return 0, err
				}
				mode, err := packField("mode", args[0], 5, 2)
				if err != nil {
					return 0, err
				}
				logic, err := packField("logic", args[1], 7, 1)
				if err != nil {
					return 0, err
				}
				return length | mode | logic, nil
			},
			Decode: func(operand uint16) []int64 {
				return []int64{
					unpackField(operand, 5, 2),
					unpackField(operand, 7, 1),
					unpackField(operand, 0, 5),
				}
			},
		},
		Doc: Doc{Name: "SELECT_LTE", Description: "selects among length (report,value) pairs by tier threshold"},
	}
}

func iTierV2ReportMeta() *Meta {
	return &Meta{
		ID: ITierV2Report, HasID: true, CanonicalName: "ITIERV2_REPORT",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return DynamicArity },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n == 2 || n == 3 || n == 10 },
		Codec: Codec{
			Encode: func(_ []int64, paramCount int) (uint16, error) {
				return uint16(paramCount - 2), nil
			},
			// Decode reconstructs the parameter count that produced the
			// operand, not a vector of per-field arguments — there are no
			// user-supplied operand arguments for this opcode (spec.md
			// §9, redesign note 4, applied here by analogy).
			Decode: func(operand uint16) []int64 { return []int64{int64(operand) + 2} },
		},
		Doc: Doc{Name: "ITIERV2_REPORT", Description: "fetches a tier report for an address from an ITierV2 contract"},
	}
}

func updateTimesForTierRangeMeta() *Meta {
	return &Meta{
		ID: UpdateTimesForTierRange, HasID: true, CanonicalName: "UPDATE_TIMES_FOR_TIER_RANGE",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return Fixed(0) },
		OutputArity: func(uint16) int { return 0 },
		ParamsValid: func(n int) bool { return n == 0 },
		Codec: Codec{
			ArgRules: []ArgRule{
				{Name: "startTier", InRange: func(v int64, _ int) bool { return v >= 0 && v <= 8 }},
				{Name: "endTier", InRange: func(v int64, _ int) bool { return v >= 0 && v <= 8 }},
			},
			Encode: func(args []int64, _ int) (uint16, error) {
				start, err := packField("startTier", args[0], 0, 4)
				if err != nil {
					return 0, err
				}
				end, err := packField("endTier", args[1], 4, 4)
				if err != nil {
					return 0, err
				}
				return start | end, nil
			},
			// The source this was ported from masked the low field with
			// &31 on decode despite packing it into only 4 bits; that is
			// a bug (spec.md §9, redesign note 3) — fixed here to &15.
			Decode: func(operand uint16) []int64 {
				return []int64{unpackField(operand, 0, 4), unpackField(operand, 4, 4)}
			},
		},
		Doc: Doc{Name: "UPDATE_TIMES_FOR_TIER_RANGE", Description: "sets the tier-change timestamp for every tier in [startTier, endTier]"},
	}
}

func ierc1155BalanceOfBatchMeta() *Meta {
	return &Meta{
		ID: IERC1155BalanceOfBatch, HasID: true, CanonicalName: "IERC1155_BALANCE_OF_BATCH",
		Aliases:     aliases(),
		InputArity:  func(uint16) Arity { return DynamicArity },
		OutputArity: func(uint16) int { return 1 },
		ParamsValid: func(n int) bool { return n > 2 && n%2 == 1 },
		Codec: Codec{
			Encode: func(_ []int64, paramCount int) (uint16, error) {
				return uint16((paramCount - 1) / 2), nil
			},
			// Decode reconstructs param_count (operand*2+1), not the
			// (token, id) pairs it was built from (spec.md §9, redesign
			// note 4) — documented rather than "fixed" because callers
			// that need param_count back (e.g. a disassembler sizing the
			// instruction's parameter window) depend on exactly this.
			Decode: func(operand uint16) []int64 { return []int64{int64(operand)*2 + 1} },
		},
		Doc: Doc{Name: "IERC1155_BALANCE_OF_BATCH", Description: "batched ERC1155 balanceOf across (token, id) pairs"},
	}
}

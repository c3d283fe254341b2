// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package normalize implements the identifier normalization rule shared by
// the opcode registry and the parser: every identifier is
// upper-cased and every '-' is treated as equivalent to '_' before it is
// compared against an opcode name or alias (spec.md §4.2).
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// Name upper-cases s (Unicode-aware, via golang.org/x/text/cases rather than
// a hand-rolled ASCII loop) and folds '-' to '_'.
func Name(s string) string {
	return strings.ReplaceAll(upper.String(s), "-", "_")
}

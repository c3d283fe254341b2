// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"strconv"
	"strings"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/lexer"
)

// parseOperandArgs parses a "<...>" clause. s must start with '<'. It
// returns the parsed integer literals, the number of bytes consumed
// (including both angle brackets), and a diagnostic if the clause is
// malformed (spec.md §4.5).
func parseOperandArgs(s string, base int) (*ast.OperandArgs, int, *ast.Diagnostic) {
	start := base
	i := 1 // skip leading '<'
	var values []int64
	for {
		i += lexer.TrimSeparators(s[i:])
		if i >= len(s) {
			return nil, i, &ast.Diagnostic{
				Message: `expected ">"`,
				Span:    ast.Span{Start: start, End: base + i},
			}
		}
		if s[i] == '>' {
			i++
			return &ast.OperandArgs{Values: values, Span: ast.Span{Start: start, End: base + i}}, i, nil
		}
		if s[i] == '(' || s[i] == ')' || s[i] == '<' {
			return nil, i, &ast.Diagnostic{
				Message: "found invalid character in operand arguments",
				Span:    ast.Span{Start: base + i, End: base + i + 1},
			}
		}
		word := lexer.Word(s[i:])
		// '>' is not a lexer boundary, so the last argument's word can run
		// into the closing bracket; cut it there.
		if j := strings.IndexByte(word, '>'); j >= 0 {
			word = word[:j]
		}
		if word == "" {
			return nil, i, &ast.Diagnostic{
				Message: "found invalid character in operand arguments",
				Span:    ast.Span{Start: base + i, End: base + i + 1},
			}
		}
		n, err := strconv.ParseInt(word, 0, 64)
		if err != nil {
			return nil, i, &ast.Diagnostic{
				Message: "found invalid character in operand arguments",
				Span:    ast.Span{Start: base + i, End: base + i + len(word)},
			}
		}
		values = append(values, n)
		i += len(word)
	}
}

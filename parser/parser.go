// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package parser implements the Rain-expression parser: a single-pass,
// notation-aware recursive-descent state machine that turns expression text
// directly into a resolved ast.Tree, with no separate token stream
// (spec.md §4.3, §4.4). Prefix, postfix, and infix notation all lower to
// the same ast.Op shape by the time a node leaves this package.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rouzwelt/rainlang/ast"
	"github.com/rouzwelt/rainlang/internal/normalize"
	"github.com/rouzwelt/rainlang/lexer"
	"github.com/rouzwelt/rainlang/opcode"
)

// Parser holds the two pieces of state a parse call needs: the opcode
// registry consulted for every name lookup, and the configured
// multi-output placeholder token (spec.md §5, "a fresh Parser per call").
type Parser struct {
	reg         *opcode.Registry
	placeholder string
}

// New constructs a Parser. An empty placeholder defaults to "_"
// (spec.md §3).
func New(reg *opcode.Registry, placeholder string) *Parser {
	if placeholder == "" {
		placeholder = "_"
	}
	return &Parser{reg: reg, placeholder: placeholder}
}

// state is the cursor threaded through one sub-expression's recursive
// descent: a byte offset into src plus the offset of src[0] in the
// original (un-split) input, so every emitted span refers back to the
// caller's original text (spec.md §3, "Invariants").
type state struct {
	src  string
	i    int
	base int
}

func (st *state) rest() string { return st.src[st.i:] }
func (st *state) pos() int     { return st.base + st.i }
func (st *state) eof() bool    { return st.i >= len(st.src) }
func (st *state) peek() byte {
	if st.eof() {
		return 0
	}
	return st.src[st.i]
}
func (st *state) skipSep() { st.i += lexer.TrimSeparators(st.rest()) }

// elem is one item collected while parsing a single nesting level: either
// a fully formed node, or a bare word awaiting infix/postfix resolution
// once the whole level has been collected (spec.md §4.4, "tree resolver").
type elem struct {
	node ast.Node

	bareOp   bool
	bareName string // normalized
	bareRaw  string // as written, for error messages
	bareSpan ast.Span
}

func elemNode(n ast.Node) elem { return elem{node: n} }

// Parse splits text into semicolon-delimited sub-expressions (spec.md
// §4.1 program grammar) and parses+resolves each one independently.
func (p *Parser) Parse(text string) *ast.Tree {
	tree := &ast.Tree{}
	for _, span := range splitSubExprs(text) {
		src := text[span.Start:span.End]
		st := &state{src: src, base: span.Start}
		elems := p.parseLevel(st)
		roots, err := p.resolveLevel(elems, span)
		if err != nil {
			roots = []ast.Node{&ast.Err{Diagnostic: *err}}
		}
		tree.SubExprs = append(tree.SubExprs, ast.SubExpr{SourceSpan: span, Roots: roots})
	}
	return tree
}

// splitSubExprs implements `program ::= sub_expr (';' sub_expr)* ';'?`: one
// optional trailing ';' is stripped before splitting, so ";;" yields two
// empty sub-expressions rather than three (spec.md §8, worked example).
func splitSubExprs(text string) []ast.Span {
	trimmed := text
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] == ';' {
		trimmed = trimmed[:len(trimmed)-1]
	}
	var spans []ast.Span
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i == len(trimmed) || trimmed[i] == ';' {
			spans = append(spans, ast.Span{Start: start, End: i})
			start = i + 1
		}
	}
	return spans
}

// parseLevel consumes elements, separated by SEP, until it hits an
// unmatched ')' or runs out of input. It never returns an error itself:
// malformed elements are recorded as *ast.Err elems so a single typo does
// not swallow the rest of the level's diagnostics (spec.md's Diagnostic
// "never abort parsing").
func (p *Parser) parseLevel(st *state) []elem {
	var elems []elem
	for {
		st.skipSep()
		if st.eof() || st.peek() == ')' {
			return elems
		}
		before := st.i
		el, errDiag := p.parseElement(st)
		if errDiag != nil {
			elems = append(elems, elemNode(&ast.Err{Diagnostic: *errDiag}))
			if st.i <= before {
				st.i = before + 1 // force progress
			}
			continue
		}
		if op, ok := el.node.(*ast.Op); ok && op.OutputResolved && op.OutputArity > 1 {
			var placeErr *ast.Diagnostic
			elems, placeErr = consumeOutputPlaceholders(elems, op, p.placeholder)
			if placeErr != nil {
				op.Error = placeErr
			}
		}
		elems = append(elems, el)
	}
}

// parseElement dispatches on the next significant character, mirroring
// the inner-loop table of spec.md §4.3 ('(' | '<' | word).
func (p *Parser) parseElement(st *state) (elem, *ast.Diagnostic) {
	switch st.peek() {
	case '(':
		return p.parseParenGroup(st)
	case '<':
		start := st.pos()
		_, n, errDiag := parseOperandArgs(st.rest(), st.pos())
		st.i += n
		if errDiag != nil {
			return elem{}, errDiag
		}
		return elem{}, &ast.Diagnostic{
			Message: `invalid use of "<...>": not followed by "("`,
			Span:    ast.Span{Start: start, End: st.pos()},
		}
	default:
		word := lexer.Word(st.rest())
		if word == "" {
			c := st.peek()
			span := ast.Span{Start: st.pos(), End: st.pos() + 1}
			st.i++
			return elem{}, &ast.Diagnostic{Message: fmt.Sprintf("unexpected character %q", string(c)), Span: span}
		}
		wordSpan := ast.Span{Start: st.pos(), End: st.pos() + len(word)}
		st.i += len(word)
		return p.parseWord(st, word, wordSpan)
	}
}

// parseWord classifies an already-scanned word: a literal value, an
// arg(n) reference, a prefix opcode head (optionally with <...> operand
// arguments), or a bare word left for infix/postfix resolution.
func (p *Parser) parseWord(st *state, word string, span ast.Span) (elem, *ast.Diagnostic) {
	norm := normalize.Name(word)

	if v, ok := classifyLiteral(word, norm, span, p.placeholder); ok {
		return elemNode(v), nil
	}

	if norm == "ARG" && st.peek() == '(' {
		return p.parseArgRef(st, span)
	}

	var opArgs *ast.OperandArgs
	if st.peek() == '<' {
		oa, n, errDiag := parseOperandArgs(st.rest(), st.pos())
		st.i += n
		if errDiag != nil {
			return elem{}, errDiag
		}
		opArgs = oa
		if st.peek() != '(' {
			return elem{}, &ast.Diagnostic{
				Message: `invalid use of "<...>": not followed by "("`,
				Span:    oa.Span,
			}
		}
	}

	if st.peek() == '(' {
		return p.parsePrefixOp(st, norm, span, opArgs)
	}

	return elem{bareOp: true, bareName: norm, bareRaw: word, bareSpan: span}, nil
}

// classifyLiteral recognises the four Value forms: the placeholder, the
// MaxUint256/Infinity sentinel, and decimal or 0x-prefixed hex literals
// (spec.md §3, "Value").
func classifyLiteral(word, norm string, span ast.Span, placeholder string) (*ast.Value, bool) {
	if word == placeholder {
		return &ast.Value{Text: word, Span: span}, true
	}
	if norm == "MAXUINT256" || norm == "INFINITY" {
		return &ast.Value{Text: norm, Span: span}, true
	}
	if isNumericLiteral(word) {
		return &ast.Value{Text: word, Span: span}, true
	}
	return nil, false
}

func isNumericLiteral(word string) bool {
	if word == "" {
		return false
	}
	if len(word) > 2 && (word[:2] == "0x" || word[:2] == "0X") {
		for _, c := range word[2:] {
			if !isHexDigit(byte(c)) {
				return false
			}
		}
		return len(word) > 2
	}
	for _, c := range word {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parseArgRef parses the "(N)" tail of an arg(n) reference; st.peek() == '('
// on entry (spec.md §3, "arg(n) reference").
func (p *Parser) parseArgRef(st *state, headSpan ast.Span) (elem, *ast.Diagnostic) {
	st.i++ // consume '('
	st.skipSep()
	word := lexer.Word(st.rest())
	n, err := strconv.ParseInt(word, 10, 32)
	if word == "" || err != nil || n < 0 {
		return elem{}, &ast.Diagnostic{
			Message: "expected a non-negative integer argument index",
			Span:    ast.Span{Start: st.pos(), End: st.pos() + len(word)},
		}
	}
	st.i += len(word)
	st.skipSep()
	if st.peek() != ')' {
		return elem{}, &ast.Diagnostic{Message: `expected ")"`, Span: ast.Span{Start: st.pos(), End: st.pos() + 1}}
	}
	closePos := st.pos()
	st.i++
	return elemNode(&ast.Value{
		Text: fmt.Sprintf("arg(%d)", n),
		Span: ast.Span{Start: headSpan.Start, End: closePos + 1},
	}), nil
}

// parsePrefixOp parses the "(params)" tail of `name(...)` / `name<...>(...)`
// prefix notation (spec.md §4.1, §4.3).
func (p *Parser) parsePrefixOp(st *state, norm string, nameSpan ast.Span, opArgs *ast.OperandArgs) (elem, *ast.Diagnostic) {
	openPos := st.pos()
	st.i++ // consume '('
	params := p.parseLevel(st)
	if st.peek() != ')' {
		return elemNode(&ast.Op{
			Name:        norm,
			NameSpan:    nameSpan,
			FullSpan:    ast.Span{Start: nameSpan.Start, End: st.pos()},
			OperandArgs: opArgs,
			Error:       &ast.Diagnostic{Message: `expected ")"`, Span: ast.Span{Start: st.pos(), End: st.pos() + 1}},
		}), nil
	}
	closePos := st.pos()
	st.i++ // consume ')'

	resolvedParams, lvlErr := p.resolveLevel(params, ast.Span{Start: openPos + 1, End: closePos})
	op := &ast.Op{
		Name:        norm,
		NameSpan:    nameSpan,
		FullSpan:    ast.Span{Start: nameSpan.Start, End: closePos + 1},
		ParenSpans:  []ast.Span{{Start: openPos, End: openPos + 1}, {Start: closePos, End: closePos + 1}},
		Parameters:  resolvedParams,
		OperandArgs: opArgs,
	}
	if lvlErr != nil {
		op.Error = lvlErr
	} else {
		p.resolveOp(op)
	}
	return elemNode(op), nil
}

// parseParenGroup parses a standalone "(...)" not immediately preceded by
// an opcode head: it may turn out to be grouping parens, a postfix
// `(params)NAME` notation, an infix expression, or — if none of those
// apply — an unknown-opcode node synthesised to host the contents
// (spec.md §4.3, rule for '(').
func (p *Parser) parseParenGroup(st *state) (elem, *ast.Diagnostic) {
	openPos := st.pos()
	st.i++ // consume '('
	inner := p.parseLevel(st)
	if st.peek() != ')' {
		return elem{}, &ast.Diagnostic{Message: `expected ")"`, Span: ast.Span{Start: st.pos(), End: st.pos() + 1}}
	}
	closePos := st.pos()
	st.i++ // consume ')'
	groupSpan := ast.Span{Start: openPos, End: closePos + 1}

	resolved, lvlErr := p.resolveLevel(inner, ast.Span{Start: openPos + 1, End: closePos})

	tailWord := lexer.Word(st.rest())
	if tailWord != "" {
		if _, known := p.reg.Lookup(tailWord); known {
			tailSpan := ast.Span{Start: st.pos(), End: st.pos() + len(tailWord)}
			st.i += len(tailWord)
			if st.peek() == '(' {
				return elem{}, &ast.Diagnostic{
					Message: fmt.Sprintf("invalid notation: %q immediately followed by \"(\" after a closing \")\" is ambiguous", tailWord),
					Span:    ast.Span{Start: groupSpan.Start, End: tailSpan.End},
				}
			}
			op := &ast.Op{
				Name:       normalize.Name(tailWord),
				NameSpan:   tailSpan,
				FullSpan:   ast.Span{Start: groupSpan.Start, End: tailSpan.End},
				ParenSpans: []ast.Span{{Start: openPos, End: openPos + 1}, {Start: closePos, End: closePos + 1}},
				Parameters: resolved,
			}
			if lvlErr != nil {
				op.Error = lvlErr
			} else {
				p.resolveOp(op)
			}
			return elemNode(op), nil
		}
	}

	if lvlErr != nil {
		return elemNode(ast.NewErr(lvlErr.Message, groupSpan)), nil
	}
	switch len(resolved) {
	case 0:
		return elemNode(ast.NewErr("empty parenthesized group", groupSpan)), nil
	case 1:
		return elemNode(resolved[0]), nil
	default:
		return elemNode(&ast.Op{
			FullSpan:   groupSpan,
			ParenSpans: []ast.Span{{Start: openPos, End: openPos + 1}, {Start: closePos, End: closePos + 1}},
			Parameters: resolved,
			Error: &ast.Diagnostic{
				Message: "unknown opcode: no name precedes this group and its contents are not an infix expression",
				Span:    groupSpan,
			},
		}), nil
	}
}

// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"fmt"

	"github.com/rouzwelt/rainlang/ast"
)

// resolveLevel reshapes one flat elems slice — a prefix op's parameter
// list, a standalone paren group's contents, or a whole sub-expression —
// into its final node list. A level with no bare words is already final.
// A level that is entirely one alternating value/op/value/.../op/value
// chain lowers to a single infix ast.Op (spec.md §4.4, "infix lowering").
// Anything else involving a bare word is a resolution error.
func (p *Parser) resolveLevel(elems []elem, levelSpan ast.Span) ([]ast.Node, *ast.Diagnostic) {
	if len(elems) == 0 {
		return nil, nil
	}

	bareCount := 0
	bareName := ""
	mismatched := false
	for _, e := range elems {
		if !e.bareOp {
			continue
		}
		bareCount++
		if bareName == "" {
			bareName = e.bareName
		} else if bareName != e.bareName {
			mismatched = true
		}
	}

	if bareCount == 0 {
		nodes := make([]ast.Node, len(elems))
		for i, e := range elems {
			nodes[i] = e.node
		}
		return nodes, nil
	}

	if len(elems) == 1 {
		e := elems[0]
		if _, known := p.reg.Lookup(e.bareName); !known {
			return nil, &ast.Diagnostic{Message: fmt.Sprintf("unknown opcode %q", e.bareRaw), Span: e.bareSpan}
		}
		// A lone bare word that does name a real opcode, but with no
		// sibling to pair with in an infix chain, could equally have been
		// intended as a plain value — the grammar can't tell (spec.md
		// §4.4, op_head ambiguity rule).
		return nil, &ast.Diagnostic{Message: fmt.Sprintf("ambiguous expression/opcode %q", e.bareRaw), Span: e.bareSpan}
	}

	if mismatched {
		return nil, &ast.Diagnostic{Message: "invalid infix expression: mismatched operators", Span: levelSpan}
	}
	if len(elems)%2 == 0 {
		return nil, &ast.Diagnostic{Message: "invalid infix expression", Span: levelSpan}
	}

	params := make([]ast.Node, 0, len(elems)/2+1)
	for i, e := range elems {
		wantOp := i%2 == 1
		if wantOp != e.bareOp {
			return nil, &ast.Diagnostic{Message: "invalid infix expression", Span: levelSpan}
		}
		if !e.bareOp {
			params = append(params, e.node)
		}
	}

	nameSpan := elems[1].bareSpan
	op := &ast.Op{
		Name:       bareName,
		NameSpan:   nameSpan,
		FullSpan:   levelSpan,
		Parameters: params,
		Infix:      true,
	}
	if _, known := p.reg.Lookup(bareName); !known {
		op.Error = &ast.Diagnostic{Message: fmt.Sprintf("unknown opcode %q", elems[1].bareRaw), Span: nameSpan}
	} else {
		p.resolveOp(op)
	}
	return []ast.Node{op}, nil
}

// resolveOp resolves an Op's operand and output arity against the
// registry: validate parameter count, validate and encode the <...>
// operand arguments (or require none, for a zero codec), then derive
// output arity from the encoded operand (spec.md §4.4, "operand/output
// arity resolution"). It is a no-op if op already carries an error.
func (p *Parser) resolveOp(op *ast.Op) {
	if op.Error != nil {
		return
	}
	meta, ok := p.reg.Lookup(op.Name)
	if !ok {
		op.Error = &ast.Diagnostic{Message: fmt.Sprintf("unknown opcode %q", op.Name), Span: op.NameSpan}
		return
	}
	// op.Name was the as-typed (normalized) token, which may be an alias;
	// canonicalize it now that resolution has found the real descriptor
	// (ast.Op.Name is documented as "the normalized canonical name").
	op.Name = meta.CanonicalName

	paramCount := len(op.Parameters)
	if !meta.ParamsValid(paramCount) {
		op.Error = &ast.Diagnostic{
			Message: fmt.Sprintf("%s: wrong number of parameters (got %d)", meta.CanonicalName, paramCount),
			Span:    op.FullSpan,
		}
		return
	}

	var args []int64
	argsSpan := op.NameSpan
	if op.OperandArgs != nil {
		args = op.OperandArgs.Values
		argsSpan = op.OperandArgs.Span
	}

	codec := meta.Codec
	switch {
	case codec.IsZero && len(args) > 0:
		op.Error = &ast.Diagnostic{Message: fmt.Sprintf("%s does not accept operand arguments", meta.CanonicalName), Span: argsSpan}
		return
	case !codec.IsZero && len(args) != len(codec.ArgRules):
		op.Error = &ast.Diagnostic{
			Message: fmt.Sprintf("%s expects %d operand argument(s), got %d", meta.CanonicalName, len(codec.ArgRules), len(args)),
			Span:    argsSpan,
		}
		return
	}
	if idx := codec.ValidateArgs(args, paramCount); idx >= 0 {
		op.Error = &ast.Diagnostic{
			Message: fmt.Sprintf("%s: operand argument %q out of range", meta.CanonicalName, codec.ArgRules[idx].Name),
			Span:    argsSpan,
		}
		return
	}

	operand, err := codec.Encode(args, paramCount)
	if err != nil {
		op.Error = &ast.Diagnostic{Message: fmt.Sprintf("%s: %v", meta.CanonicalName, err), Span: argsSpan}
		return
	}

	op.Operand = operand
	op.OperandResolved = true
	op.OutputArity = meta.OutputArity(operand)
	op.OutputResolved = true
	op.Data = meta.Doc
}

// consumeOutputPlaceholders implements spec.md §4.4's multi-output
// placeholder cache: when op resolves to an output arity greater than one,
// the (arity-1) placeholder siblings immediately to its left, on the same
// stack level, are rewritten into named placeholder values representing
// its extra outputs. Because elems is built strictly left-to-right within
// one level, a local backward scan over the level being built is
// equivalent to the spec's separate stack of pending vectors — both
// identify exactly the same sibling positions.
func consumeOutputPlaceholders(elems []elem, op *ast.Op, placeholder string) ([]elem, *ast.Diagnostic) {
	need := op.OutputArity - 1
	count := 0
	for i := len(elems) - 1; i >= 0 && count < need; i-- {
		v, ok := elems[i].node.(*ast.Value)
		if !ok || !v.IsPlaceholder(placeholder) {
			break
		}
		count++
	}
	if count < need {
		return elems, &ast.Diagnostic{
			Message: fmt.Sprintf("illegal placement of outputs: expected %d placeholder(s) to the left, found %d", need, count),
			Span:    op.FullSpan,
		}
	}
	start := len(elems) - need
	for k := 0; k < need; k++ {
		orig := elems[start+k].node
		elems[start+k].node = &ast.Value{
			Text: fmt.Sprintf("%s output %d placeholder", op.Name, k+1),
			Span: orig.Pos(),
		}
	}
	return elems, nil
}

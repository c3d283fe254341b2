// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package diag renders ast.Diagnostic values to a terminal: severity-
// coded via github.com/fatih/color, with color automatically suppressed
// on non-TTY output (redirected stdout, CI logs) via
// github.com/mattn/go-isatty / github.com/mattn/go-colorable, the same
// guard the teacher's log package applies before emitting ANSI codes.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/rouzwelt/rainlang/ast"
)

// Printer renders diagnostics against the original source text so each
// message can show its offending span in context.
type Printer struct {
	out    io.Writer
	source string
	color  bool
}

// NewPrinter wraps w (typically os.Stderr) so that color escapes are
// emitted only when w is a real terminal.
func NewPrinter(w io.Writer, source string) *Printer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if useColor {
			w = colorable.NewColorable(f)
		}
	}
	return &Printer{out: w, source: source, color: useColor}
}

// Print writes two lines per diagnostic: "error: message", then
// "  at start:end: snippet" with the quoted source text the span covers.
func (p *Printer) Print(diags []ast.Diagnostic) {
	bold := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)
	for _, d := range diags {
		snippet := p.snippet(d.Span)
		if p.color {
			bold.Fprintf(p.out, "error: %s", d.Message)
			fmt.Fprintln(p.out)
			dim.Fprintf(p.out, "  at %s: %q\n", d.Span, snippet)
			continue
		}
		fmt.Fprintf(p.out, "error: %s\n  at %s: %q\n", d.Message, d.Span, snippet)
	}
}

func (p *Printer) snippet(span ast.Span) string {
	start, end := span.Start, span.End
	if start < 0 {
		start = 0
	}
	if end > len(p.source) {
		end = len(p.source)
	}
	if start > end {
		return ""
	}
	return p.source[start:end]
}

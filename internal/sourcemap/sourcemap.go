// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package sourcemap emits a debug artifact linking byte offsets in a
// compiled StateConfig source buffer back to the span they came from in
// the original Rain-expression text — the same relationship a
// JavaScript source map expresses between generated and original code.
// It is additive tooling consumed by external formatters/debuggers
// (spec.md §1): `rainc compile -sourcemap <path>` writes the document
// to disk, and raincd's /v1/compile returns it inline when the request
// carries a `sourcemap` query parameter. BuildBytes/GetStateConfig
// themselves never depend on it — compilation succeeds whether or not
// a map is requested.
//
// Encoding the map is a handful of lines of base64-VLQ, which
// github.com/go-sourcemap/sourcemap does not itself expose (it is a
// consumer library); decoding, however, goes through that library
// directly, so a map this package produces is also a standard source
// map v3 document any other consumer can read.
package sourcemap

import (
	"encoding/json"
	"sort"
	"strings"

	gosourcemap "github.com/go-sourcemap/sourcemap"

	"github.com/rouzwelt/rainlang/ast"
)

// Entry records one instruction's position in both the generated buffer
// and the original source text.
type Entry struct {
	GeneratedOffset int // byte offset into the packed-bytecode source buffer
	OriginalStart   int // byte offset into the original input text
}

// document is the standard source-map v3 JSON shape.
type document struct {
	Version  int      `json:"version"`
	File     string   `json:"file,omitempty"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// Build encodes entries (which need not be sorted) as a source-map v3
// document for a single "line" of generated output, sourceName
// identifying the original Rain-expression source.
func Build(sourceName string, entries []Entry) []byte {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GeneratedOffset < sorted[j].GeneratedOffset })

	var b strings.Builder
	prevGenerated, prevOriginal := 0, 0
	for i, e := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeVLQ(&b, e.GeneratedOffset-prevGenerated)
		encodeVLQ(&b, 0) // source index delta; always source 0
		encodeVLQ(&b, 0) // original line delta; the compiled text is single-"line"
		encodeVLQ(&b, e.OriginalStart-prevOriginal)
		prevGenerated = e.GeneratedOffset
		prevOriginal = e.OriginalStart
	}

	doc := document{
		Version:  3,
		Sources:  []string{sourceName},
		Names:    []string{},
		Mappings: b.String(),
	}
	out, _ := json.Marshal(doc)
	return out
}

// Lookup parses a map produced by Build (or any standard source-map v3
// document) and resolves a generated byte offset back to its original
// span, using github.com/go-sourcemap/sourcemap's VLQ decoder.
func Lookup(mapJSON []byte, generatedOffset int) (originalOffset int, ok bool) {
	consumer, err := gosourcemap.Parse("", mapJSON)
	if err != nil {
		return 0, false
	}
	// The consumer numbers generated lines from 1; Build emits a single line.
	_, _, _, col, ok := consumer.Source(1, generatedOffset)
	return col, ok
}

// ForTree builds one Entry per Value leaf of tree, in textual order,
// pairing the leaf's generated byte offset with the start of its span.
// Op nodes get no Entry of their own.
func ForTree(tree *ast.Tree, instructionSize int) []Entry {
	var entries []Entry
	offset := 0
	tree.Walk(func(n ast.Node) {
		if _, ok := n.(*ast.Op); ok {
			return // only leaves correspond to a single emitted instruction 1:1 here
		}
		entries = append(entries, Entry{GeneratedOffset: offset, OriginalStart: n.Pos().Start})
		offset += instructionSize
	})
	return entries
}

// encodeVLQ appends value to b using the base64-VLQ scheme source maps
// use: a sign bit in the low bit of the first digit, then 5 payload bits
// per base64 digit with the high bit as a continuation flag.
func encodeVLQ(b *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Alphabet[digit])
		if v == 0 {
			break
		}
	}
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

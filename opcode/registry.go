// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package opcode

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/rouzwelt/rainlang/internal/normalize"
)

// Registry is an indexable table of opcode descriptors plus the three
// pseudo-opcode overrides (spec.md §4.1, §5). A fresh Registry is safe to
// read concurrently; mutation (Set*) must happen only between parse calls,
// never concurrently with a parse (spec.md §5).
type Registry struct {
	byID   map[uint16]*Meta
	byName map[string]*Meta // normalized canonical-name-or-alias -> Meta

	gte, lte, ineq *Meta
}

// New builds a Registry pre-loaded with the built-in opcode table
// (opcode.Defaults) plus the default GTE/LTE/INEQ pseudo-opcodes.
func New() *Registry {
	r := &Registry{
		byID:   make(map[uint16]*Meta),
		byName: make(map[string]*Meta),
	}
	for _, m := range Defaults() {
		if err := r.Set(m); err != nil {
			// A collision in the built-in table is a programming error,
			// not a user-facing condition (spec.md "Registry lookups":
			// collisions are fatal registry-load errors).
			panic(fmt.Sprintf("opcode registry: %v", err))
		}
	}
	r.gte = pseudoMeta("GTE", "1 if the first operand is greater than or equal to the second, else 0")
	r.lte = pseudoMeta("LTE", "1 if the first operand is less than or equal to the second, else 0")
	r.ineq = pseudoMeta("INEQ", "1 if the operands are not equal, else 0")
	r.indexPseudo(r.gte)
	r.indexPseudo(r.lte)
	r.indexPseudo(r.ineq)
	return r
}

func pseudoMeta(name, description string) *Meta {
	return &Meta{
		CanonicalName: name,
		Aliases:       mapset.NewSet[string](),
		InputArity:    func(uint16) Arity { return Fixed(2) },
		OutputArity:   func(uint16) int { return 1 },
		ParamsValid:   func(n int) bool { return n == 2 },
		Codec:         ZeroCodec,
		Doc:           Doc{Name: name, Description: description},
	}
}

// Set installs or replaces an opcode descriptor, re-indexing its canonical
// name and aliases. The previous registration under the same id is removed
// first; a name collision against a *different* opcode's entry (a
// pseudo-opcode included) is a fatal registry-load error (spec.md
// "Registry lookups").
func (r *Registry) Set(m *Meta) error {
	if !m.HasID {
		return fmt.Errorf("opcode %q has no stable id; use SetGteMeta/SetLteMeta/SetIneqMeta for pseudo-opcodes", m.CanonicalName)
	}
	if old, ok := r.byID[m.ID]; ok {
		r.unindex(old)
	}
	names := append([]string{m.CanonicalName}, m.Aliases.ToSlice()...)
	for _, n := range names {
		key := normalize.Name(n)
		if existing, ok := r.byName[key]; ok && (!existing.HasID || existing.ID != m.ID) {
			return fmt.Errorf("opcode registry: name %q collides between %q and %q", key, existing.CanonicalName, m.CanonicalName)
		}
	}
	r.byID[m.ID] = m
	for _, n := range names {
		r.byName[normalize.Name(n)] = m
	}
	return nil
}

func (r *Registry) unindex(m *Meta) {
	for _, n := range append([]string{m.CanonicalName}, m.Aliases.ToSlice()...) {
		delete(r.byName, normalize.Name(n))
	}
}

func (r *Registry) indexPseudo(m *Meta) {
	for _, n := range append([]string{m.CanonicalName}, m.Aliases.ToSlice()...) {
		r.byName[normalize.Name(n)] = m
	}
}

// Lookup resolves name (normalized per spec.md §4.2) against the combined
// canonical-name/alias table, including the pseudo-opcodes.
func (r *Registry) Lookup(name string) (*Meta, bool) {
	m, ok := r.byName[normalize.Name(name)]
	return m, ok
}

// ByID resolves a stable opcode id back to its descriptor.
func (r *Registry) ByID(id uint16) (*Meta, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Size returns the number of stable-id opcodes in the registry. The code
// generator uses this value as the sentinel opcode id for the arg(n)
// placeholder instruction (spec.md §4.6).
func (r *Registry) Size() int { return len(r.byID) }

// All returns every stable-id opcode descriptor, sorted by id, for
// introspection (`rainc opcodes`, GET /v1/opcodes).
func (r *Registry) All() []*Meta {
	out := make([]*Meta, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GTE, LTE, INEQ return the current pseudo-opcode descriptors.
func (r *Registry) GTE() *Meta  { return r.gte }
func (r *Registry) LTE() *Meta  { return r.lte }
func (r *Registry) INEQ() *Meta { return r.ineq }

func (r *Registry) setPseudo(slot **Meta, name, description string, data any, aliasNames []string) {
	old := *slot
	r.unindex(old)
	m := pseudoMeta(old.CanonicalName, old.Doc.Description)
	m.Doc = old.Doc
	m.Aliases = old.Aliases.Clone()
	if name != "" {
		m.Doc.Name = name
	}
	if description != "" {
		m.Doc.Description = description
	}
	if data != nil {
		m.Doc.Data = data
	}
	if aliasNames != nil {
		m.Aliases = mapset.NewSet(aliasNames...)
	}
	*slot = m
	r.indexPseudo(m)
}

// SetGteMeta overrides the GTE pseudo-opcode's documentation and aliases.
// Zero-value arguments leave the corresponding field unchanged; a nil
// aliases slice leaves the alias set unchanged (spec.md §6).
func (r *Registry) SetGteMeta(name, description string, data any, aliasNames []string) {
	r.setPseudo(&r.gte, name, description, data, aliasNames)
}

// SetLteMeta overrides the LTE pseudo-opcode's documentation and aliases.
func (r *Registry) SetLteMeta(name, description string, data any, aliasNames []string) {
	r.setPseudo(&r.lte, name, description, data, aliasNames)
}

// SetIneqMeta overrides the INEQ pseudo-opcode's documentation and aliases.
func (r *Registry) SetIneqMeta(name, description string, data any, aliasNames []string) {
	r.setPseudo(&r.ineq, name, description, data, aliasNames)
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the Keyword Registry: the catalog of keywords the
// engine knows how to evaluate, plus the ordering rule that lets keywords
// like unevaluatedItems observe the annotations their sibling keywords
// produced during the same schema's evaluation.
//
// Built-in keywords (type, properties, allOf, and so on) are evaluated by
// hand-written logic in driver.go, in a fixed order of its own; the
// registry records their drafts, priorities and dependencies for Lookup,
// Enumerate and Ordered, and the driver does not consult that metadata.
// Keywords absent from the Schema struct — genuinely unknown keywords, or
// ones belonging to a vocabulary registered at runtime — are dispatched
// through a registered KeywordDescriptor's Eval function instead.

package jsonschema

import (
	"fmt"
	"slices"
	"sort"
)

// A KeywordDescriptor describes one keyword to a [Registry].
type KeywordDescriptor struct {
	// Name is the keyword's JSON object key, e.g. "unevaluatedProperties".
	Name string

	// Priority breaks ties between keywords that have no dependency
	// relationship: lower values evaluate first. Built-in keywords use the
	// range [0,100); third-party vocabularies should generally use values
	// above that unless they specifically need to run earlier.
	Priority int

	// Drafts restricts the keyword to the listed drafts. A nil or empty
	// slice means the keyword applies to every draft the engine supports.
	Drafts []Draft

	// Vocabulary names the JSON Schema vocabulary URI this keyword belongs
	// to, for schemas that declare "$vocabulary". Empty for keywords that
	// aren't gated by vocabulary declarations (most of the core and
	// validation vocabularies, and all custom keywords).
	Vocabulary string

	// DependsOn lists sibling keyword names whose annotations this
	// keyword's evaluation consults. The registry's Ordered function
	// guarantees every name in DependsOn is evaluated, for a given schema,
	// before this keyword is. A cycle among registered descriptors is
	// reported as a RegistryCycle [SchemaError] at registration time.
	DependsOn []string

	// Eval evaluates the keyword against an instance. It is consulted only
	// for keywords not already built into the driver (custom keywords and
	// third-party vocabulary keywords); it receives the raw JSON value of
	// the keyword (from Schema.Extra) rather than a typed field. The
	// returned KeywordEvaluation must set Keyword; the driver fills in
	// KeywordLocation and InstanceLocation itself.
	Eval func(e *evalState, raw []byte, instance any, schemaPath, instPath Pointer) *KeywordEvaluation
}

func (d *KeywordDescriptor) appliesTo(draft Draft) bool {
	if len(d.Drafts) == 0 {
		return true
	}
	return slices.Contains(d.Drafts, draft)
}

// A Registry holds the set of keywords the engine recognizes, along with
// the builtin keyword names it always knows about (so Ordered can place
// them even though they have no descriptor with an Eval function).
type Registry struct {
	descriptors map[string]*KeywordDescriptor
	builtins    map[string]*KeywordDescriptor // builtin keyword ordering metadata
}

// NewRegistry returns an empty Registry. Most programs should extend
// [DefaultRegistry] (via [Registry.Register] on a copy, see
// [DefaultRegistry.Clone]) rather than start from scratch, since an empty
// Registry knows no built-in keyword ordering at all.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: map[string]*KeywordDescriptor{},
		builtins:    map[string]*KeywordDescriptor{},
	}
}

// Clone returns a Registry with the same descriptors as r, safe to extend
// with Register without affecting r.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.descriptors {
		c.descriptors[k] = v
	}
	for k, v := range r.builtins {
		c.builtins[k] = v
	}
	return c
}

// Register adds d to r. It returns a RegistryCycle [SchemaError] if adding
// d would create a cycle in the DependsOn graph.
func (r *Registry) Register(d *KeywordDescriptor) error {
	next := r.Clone()
	next.descriptors[d.Name] = d
	if err := next.checkAcyclic(); err != nil {
		return err
	}
	r.descriptors[d.Name] = d
	return nil
}

func (r *Registry) registerBuiltin(d *KeywordDescriptor) {
	r.builtins[d.Name] = d
	r.descriptors[d.Name] = d
}

// Lookup returns the descriptor registered for name, if any.
func (r *Registry) Lookup(name string) (*KeywordDescriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Enumerate returns every descriptor active for draft, sorted by name.
func (r *Registry) Enumerate(draft Draft) []*KeywordDescriptor {
	var out []*KeywordDescriptor
	for _, d := range r.descriptors {
		if d.appliesTo(draft) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b *KeywordDescriptor) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// Ordered returns names, a set of keyword names present on one schema,
// ordered so that: (1) every keyword appears after every sibling it
// DependsOn, (2) ties are broken by ascending Priority, and (3) remaining
// ties are broken alphabetically, standing in for the specification's
// "declaration order" tiebreaker, which a typed Schema struct cannot
// recover (see DESIGN.md).
func (r *Registry) Ordered(names []string, draft Draft) ([]string, error) {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	// Kahn's algorithm over the subgraph induced by `present`.
	indegree := map[string]int{}
	dependents := map[string][]string{} // keyword -> keywords that depend on it
	for _, n := range names {
		indegree[n] = 0
	}
	for _, n := range names {
		d, ok := r.descriptors[n]
		if !ok {
			continue
		}
		for _, dep := range d.DependsOn {
			if !present[dep] {
				continue
			}
			indegree[n]++
			dependents[dep] = append(dependents[dep], n)
		}
	}

	priority := func(n string) int {
		if d, ok := r.descriptors[n]; ok {
			return d.Priority
		}
		return 50
	}

	var ready []string
	for n := range indegree {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sortReady := func() {
		sort.Slice(ready, func(i, j int) bool {
			pi, pj := priority(ready[i]), priority(ready[j])
			if pi != pj {
				return pi < pj
			}
			return ready[i] < ready[j]
		})
	}

	var out []string
	for len(ready) > 0 {
		sortReady()
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(out) != len(names) {
		return nil, schemaErrorf(RegistryCycle, nil, "", "cycle detected among keywords %v", names)
	}
	return out, nil
}

func (r *Registry) checkAcyclic() error {
	names := make([]string, 0, len(r.descriptors))
	for n := range r.descriptors {
		names = append(names, n)
	}
	_, err := r.Ordered(names, DraftNext) // DraftNext: consider every descriptor
	return err
}

// DefaultRegistry is the Registry used when [Options.Registry] is nil. It
// is populated below, in this file's init, with every built-in keyword's
// ordering metadata (drafts, dependencies, priority). Programs that
// register additional vocabularies should Clone it rather than mutate it
// directly, since it is shared by every caller that doesn't supply its
// own Registry.
var DefaultRegistry = NewRegistry()

func init() {
	// Keyword families are ordered, low to high priority: assertions that
	// establish "what's true about this instance" run before the
	// annotation-collecting applicators, which run before the keywords
	// (unevaluatedItems/unevaluatedProperties) that consume those
	// annotations.
	type reg struct {
		name      string
		priority  int
		drafts    []Draft
		dependsOn []string
	}
	regs := []reg{
		{"type", 0, nil, nil},
		{"enum", 0, nil, nil},
		{"const", 0, nil, nil},
		{"multipleOf", 0, nil, nil},
		{"minimum", 0, nil, nil},
		{"maximum", 0, nil, nil},
		{"exclusiveMinimum", 0, nil, nil},
		{"exclusiveMaximum", 0, nil, nil},
		{"minLength", 0, nil, nil},
		{"maxLength", 0, nil, nil},
		{"pattern", 0, nil, nil},

		{"$ref", 10, nil, nil},
		{"$dynamicRef", 10, []Draft{Draft2019_09, Draft2020_12, DraftNext}, nil},
		{"$recursiveRef", 10, []Draft{Draft2019_09}, nil},

		{"allOf", 20, nil, nil},
		{"anyOf", 20, nil, nil},
		{"oneOf", 20, nil, nil},
		{"not", 20, nil, nil},
		{"if", 20, nil, nil},
		{"then", 21, nil, []string{"if"}},
		{"else", 21, nil, []string{"if"}},

		{"prefixItems", 30, []Draft{Draft2019_09, Draft2020_12, DraftNext}, nil},
		{"items", 31, nil, []string{"prefixItems"}},
		{"additionalItems", 31, []Draft{Draft6, Draft7, Draft2019_09}, []string{"items"}},
		{"contains", 32, nil, nil},
		{"minContains", 33, nil, []string{"contains"}},
		{"maxContains", 33, nil, []string{"contains"}},
		{"minItems", 0, nil, nil},
		{"maxItems", 0, nil, nil},
		{"uniqueItems", 0, nil, nil},
		{"unevaluatedItems", 90, []Draft{Draft2019_09, Draft2020_12, DraftNext},
			[]string{"prefixItems", "items", "additionalItems", "contains", "allOf", "anyOf", "oneOf", "if", "then", "else", "$ref", "$dynamicRef", "$recursiveRef"}},

		{"properties", 30, nil, nil},
		{"patternProperties", 31, nil, nil},
		{"additionalProperties", 32, nil, []string{"properties", "patternProperties"}},
		{"propertyNames", 0, nil, nil},
		{"required", 0, nil, nil},
		{"dependentRequired", 0, []Draft{Draft2019_09, Draft2020_12, DraftNext}, nil},
		{"dependencies", 0, []Draft{Draft6, Draft7}, nil},
		{"dependentSchemas", 20, []Draft{Draft2019_09, Draft2020_12, DraftNext}, nil},
		{"minProperties", 0, nil, nil},
		{"maxProperties", 0, nil, nil},
		{"unevaluatedProperties", 90, []Draft{Draft2019_09, Draft2020_12, DraftNext},
			[]string{"properties", "patternProperties", "additionalProperties", "dependentSchemas", "allOf", "anyOf", "oneOf", "if", "then", "else", "$ref", "$dynamicRef", "$recursiveRef"}},

		{"contentEncoding", 5, nil, nil},
		{"contentMediaType", 5, nil, nil},
		{"contentSchema", 6, nil, []string{"contentMediaType"}},
		{"format", 5, nil, nil},
		{"default", 5, nil, nil},
		{"$comment", 5, nil, nil},
	}
	for _, rr := range regs {
		DefaultRegistry.registerBuiltin(&KeywordDescriptor{
			Name: rr.name, Priority: rr.priority, Drafts: rr.drafts, DependsOn: rr.dependsOn,
		})
	}
	if err := DefaultRegistry.checkAcyclic(); err != nil {
		panic(fmt.Sprintf("jsonschema: DefaultRegistry: %v", err))
	}
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"slices"
	"testing"
)

func TestRegistryOrderedRespectsDependencies(t *testing.T) {
	names := []string{"unevaluatedProperties", "properties", "additionalProperties", "patternProperties"}
	ordered, err := DefaultRegistry.Ordered(names, Draft2020_12)
	if err != nil {
		t.Fatal(err)
	}
	pos := map[string]int{}
	for i, n := range ordered {
		pos[n] = i
	}
	if pos["unevaluatedProperties"] < pos["properties"] {
		t.Errorf("unevaluatedProperties ordered before properties: %v", ordered)
	}
	if pos["unevaluatedProperties"] < pos["additionalProperties"] {
		t.Errorf("unevaluatedProperties ordered before additionalProperties: %v", ordered)
	}
	if pos["additionalProperties"] < pos["properties"] {
		t.Errorf("additionalProperties ordered before properties: %v", ordered)
	}
}

func TestRegistryOrderedIfThenElse(t *testing.T) {
	ordered, err := DefaultRegistry.Ordered([]string{"else", "then", "if"}, Draft2020_12)
	if err != nil {
		t.Fatal(err)
	}
	if ordered[0] != "if" {
		t.Errorf("got order %v, want \"if\" first", ordered)
	}
}

func TestRegistryRegisterDetectsCycle(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&KeywordDescriptor{Name: "a", DependsOn: []string{"b"}}); err != nil {
		t.Fatal(err)
	}
	err := r.Register(&KeywordDescriptor{Name: "b", DependsOn: []string{"a"}})
	if err == nil {
		t.Fatal("Register did not detect a cycle")
	}
	se, ok := err.(*SchemaError)
	if !ok || se.Kind != RegistryCycle {
		t.Errorf("got error %v, want a RegistryCycle SchemaError", err)
	}
}

func TestRegistryLookupAndEnumerate(t *testing.T) {
	if _, ok := DefaultRegistry.Lookup("properties"); !ok {
		t.Error("properties not found in DefaultRegistry")
	}
	if _, ok := DefaultRegistry.Lookup("no-such-keyword"); ok {
		t.Error("unexpectedly found no-such-keyword")
	}
	all := DefaultRegistry.Enumerate(Draft6)
	if !slices.IsSortedFunc(all, func(a, b *KeywordDescriptor) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	}) {
		t.Error("Enumerate result is not sorted by name")
	}
	for _, d := range all {
		if !d.appliesTo(Draft6) {
			t.Errorf("Enumerate(Draft6) returned %s, which does not apply to Draft6", d.Name)
		}
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	c := DefaultRegistry.Clone()
	if err := c.Register(&KeywordDescriptor{Name: "x-test-only"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := DefaultRegistry.Lookup("x-test-only"); ok {
		t.Error("Register on a clone mutated DefaultRegistry")
	}
	if _, ok := c.Lookup("x-test-only"); !ok {
		t.Error("Register on a clone did not take effect on the clone")
	}
}

func TestKeywordDescriptorAppliesTo(t *testing.T) {
	d := &KeywordDescriptor{Name: "$recursiveRef", Drafts: []Draft{Draft2019_09}}
	if !d.appliesTo(Draft2019_09) {
		t.Error("should apply to Draft2019_09")
	}
	if d.appliesTo(Draft2020_12) {
		t.Error("should not apply to Draft2020_12")
	}
	unrestricted := &KeywordDescriptor{Name: "type"}
	for _, draft := range []Draft{Draft6, Draft7, Draft2019_09, Draft2020_12, DraftNext} {
		if !unrestricted.appliesTo(draft) {
			t.Errorf("unrestricted descriptor should apply to %v", draft)
		}
	}
}

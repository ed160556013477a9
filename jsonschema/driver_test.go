// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func mustEvaluate(t *testing.T, s *Schema, instance any, opts *Options) *EvaluationResults {
	t.Helper()
	rs, err := s.Resolve("", opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res, err := rs.Evaluate(instance, opts)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return res
}

func TestEvaluateBasicAssertions(t *testing.T) {
	for _, tt := range []struct {
		name     string
		schema   *Schema
		instance any
		want     bool
	}{
		{"type match", &Schema{Type: "string"}, "hi", true},
		{"type mismatch", &Schema{Type: "string"}, 1.0, false},
		{"integer satisfies number", &Schema{Type: "number"}, 1.0, true},
		{"enum match", &Schema{Enum: []any{1.0, 2.0}}, 2.0, true},
		{"enum mismatch", &Schema{Enum: []any{1.0, 2.0}}, 3.0, false},
		{"const match", &Schema{Const: Ptr(any("x"))}, "x", true},
		{"const mismatch", &Schema{Const: Ptr(any("x"))}, "y", false},
		{"minimum ok", &Schema{Minimum: Ptr(5.0)}, 5.0, true},
		{"minimum fail", &Schema{Minimum: Ptr(5.0)}, 4.0, false},
		{"exclusiveMaximum fail", &Schema{ExclusiveMaximum: Ptr(5.0)}, 5.0, false},
		{"minLength ok", &Schema{MinLength: Ptr(2)}, "ab", true},
		{"minLength fail", &Schema{MinLength: Ptr(2)}, "a", false},
		{"pattern ok", &Schema{Pattern: "^a+$"}, "aaa", true},
		{"pattern fail", &Schema{Pattern: "^a+$"}, "b", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			res := mustEvaluate(t, tt.schema, tt.instance, nil)
			if res.Valid != tt.want {
				t.Errorf("got Valid=%v, want %v", res.Valid, tt.want)
			}
		})
	}
}

func TestEvaluateRef(t *testing.T) {
	s := &Schema{
		Defs:       map[string]*Schema{"pos": {Minimum: Ptr(0.0)}},
		Properties: map[string]*Schema{"n": {Ref: "#/$defs/pos"}},
	}
	if !mustEvaluate(t, s, map[string]any{"n": 1.0}, nil).Valid {
		t.Error("expected valid")
	}
	if mustEvaluate(t, s, map[string]any{"n": -1.0}, nil).Valid {
		t.Error("expected invalid")
	}
}

func TestEvaluateLogic(t *testing.T) {
	allOf := &Schema{AllOf: []*Schema{{Minimum: Ptr(0.0)}, {Maximum: Ptr(10.0)}}}
	if !mustEvaluate(t, allOf, 5.0, nil).Valid {
		t.Error("allOf: expected valid")
	}
	if mustEvaluate(t, allOf, 11.0, nil).Valid {
		t.Error("allOf: expected invalid")
	}

	anyOf := &Schema{AnyOf: []*Schema{{Type: "string"}, {Type: "number"}}}
	if !mustEvaluate(t, anyOf, 1.0, nil).Valid {
		t.Error("anyOf: expected valid")
	}
	if mustEvaluate(t, anyOf, true, nil).Valid {
		t.Error("anyOf: expected invalid")
	}

	oneOf := &Schema{OneOf: []*Schema{{Minimum: Ptr(0.0)}, {Maximum: Ptr(5.0)}}}
	if mustEvaluate(t, oneOf, 3.0, nil).Valid {
		t.Error("oneOf: expected invalid (matches both)")
	}
	if !mustEvaluate(t, oneOf, -1.0, nil).Valid {
		t.Error("oneOf: expected valid (matches only one)")
	}

	not := &Schema{Not: &Schema{Type: "string"}}
	if !mustEvaluate(t, not, 1.0, nil).Valid {
		t.Error("not: expected valid")
	}
	if mustEvaluate(t, not, "s", nil).Valid {
		t.Error("not: expected invalid")
	}

	ifThenElse := &Schema{
		If:   &Schema{Type: "string"},
		Then: &Schema{MinLength: Ptr(3)},
		Else: &Schema{Minimum: Ptr(0.0)},
	}
	if !mustEvaluate(t, ifThenElse, "abc", nil).Valid {
		t.Error("if/then: expected valid")
	}
	if mustEvaluate(t, ifThenElse, "ab", nil).Valid {
		t.Error("if/then: expected invalid")
	}
	if !mustEvaluate(t, ifThenElse, 1.0, nil).Valid {
		t.Error("if/else: expected valid")
	}
	if mustEvaluate(t, ifThenElse, -1.0, nil).Valid {
		t.Error("if/else: expected invalid")
	}
}

func TestEvaluateArrayKeywords(t *testing.T) {
	s := &Schema{
		PrefixItems: []*Schema{{Type: "string"}, {Type: "number"}},
		Items:       &Schema{Type: "boolean"},
		MinItems:    Ptr(2),
		UniqueItems: true,
	}
	if !mustEvaluate(t, s, []any{"a", 1.0, true, false}, nil).Valid {
		t.Error("expected valid")
	}
	if mustEvaluate(t, s, []any{"a", 1.0, true, true}, nil).Valid {
		t.Error("expected invalid: duplicate items")
	}
	if mustEvaluate(t, s, []any{"a"}, nil).Valid {
		t.Error("expected invalid: too few items")
	}
}

func TestEvaluateContains(t *testing.T) {
	s := &Schema{Contains: &Schema{Type: "string"}, MinContains: Ptr(2)}
	if mustEvaluate(t, s, []any{"a", 1.0, 2.0}, nil).Valid {
		t.Error("expected invalid: only 1 string")
	}
	if !mustEvaluate(t, s, []any{"a", "b", 1.0}, nil).Valid {
		t.Error("expected valid: 2 strings")
	}
}

func TestEvaluateObjectKeywords(t *testing.T) {
	s := &Schema{
		Properties:           map[string]*Schema{"name": {Type: "string"}},
		AdditionalProperties: &Schema{Type: "number"},
		Required:             []string{"name"},
	}
	if !mustEvaluate(t, s, map[string]any{"name": "x", "age": 1.0}, nil).Valid {
		t.Error("expected valid")
	}
	if mustEvaluate(t, s, map[string]any{"age": 1.0}, nil).Valid {
		t.Error("expected invalid: missing required")
	}
	if mustEvaluate(t, s, map[string]any{"name": "x", "extra": "bad"}, nil).Valid {
		t.Error("expected invalid: additionalProperties violation")
	}
}

func TestEvaluateDependentRequiredAndSchemas(t *testing.T) {
	s := &Schema{
		DependentRequired: map[string][]string{"cc": {"billing"}},
		DependentSchemas:  map[string]*Schema{"cc": {Required: []string{"expiry"}}},
	}
	ok := map[string]any{"cc": "1234", "billing": "addr", "expiry": "01/30"}
	if !mustEvaluate(t, s, ok, nil).Valid {
		t.Error("expected valid")
	}
	bad := map[string]any{"cc": "1234"}
	if mustEvaluate(t, s, bad, nil).Valid {
		t.Error("expected invalid")
	}
}

func TestEvaluateUnevaluatedProperties(t *testing.T) {
	s := &Schema{
		AllOf:                 []*Schema{{Properties: map[string]*Schema{"a": {Type: "string"}}}},
		UnevaluatedProperties: &Schema{Const: Ptr(any(false))},
	}
	if !mustEvaluate(t, s, map[string]any{"a": "x"}, nil).Valid {
		t.Error("expected valid: a is evaluated by allOf")
	}
	if mustEvaluate(t, s, map[string]any{"a": "x", "b": "y"}, nil).Valid {
		t.Error("expected invalid: b is unevaluated and doesn't match const:false")
	}
}

// TestEvaluateUnevaluatedPropertiesIgnoresFailedAllOfBranch checks that an
// allOf branch's annotations are only merged when that branch itself is
// valid. allOf failing already makes the whole schema invalid regardless
// of this bug, so the test inspects the unevaluatedProperties keyword's
// own verdict directly rather than the overall result: a leaked
// annotation from the failed branch would make unevaluatedProperties
// wrongly report valid even though "a" was never actually evaluated by a
// valid branch.
func TestEvaluateUnevaluatedPropertiesIgnoresFailedAllOfBranch(t *testing.T) {
	s := &Schema{
		AllOf: []*Schema{
			{Properties: map[string]*Schema{"a": {}}, Required: []string{"b"}},
		},
		UnevaluatedProperties: &Schema{Const: Ptr(any(false))},
	}
	res := mustEvaluate(t, s, map[string]any{"a": 1.0}, nil)
	kw := findKeyword(t, res.Root, "unevaluatedProperties")
	if kw.Valid {
		t.Error("expected unevaluatedProperties to be invalid: a's properties annotation came from a failed allOf branch and must not be treated as evaluated")
	}
}

// findKeyword returns the first direct KeywordEvaluation of se named name.
func findKeyword(t *testing.T, se *SchemaEvaluation, name string) *KeywordEvaluation {
	t.Helper()
	for _, kw := range se.Keywords {
		if kw.Keyword == name {
			return kw
		}
	}
	t.Fatalf("no %q keyword evaluation found", name)
	return nil
}

func TestEvaluateUnevaluatedItems(t *testing.T) {
	// Before 2020-12, an index "contains" matches counts as evaluated for
	// unevaluatedItems. 2020-12 removed that exclusion.
	s := &Schema{
		Contains:         &Schema{Const: Ptr(any(1.0))},
		UnevaluatedItems: &Schema{Const: Ptr(any(false))},
	}
	instance := []any{1.0}

	old := mustEvaluate(t, s, instance, &Options{EvaluatingAs: Draft2019_09})
	if !old.Valid {
		t.Error("draft 2019-09: expected valid: contains-matched index counts as evaluated")
	}

	next := mustEvaluate(t, s, instance, &Options{EvaluatingAs: Draft2020_12})
	if next.Valid {
		t.Error("draft 2020-12: expected invalid: contains no longer excludes its matched indexes from unevaluatedItems")
	}
}

type fixedFormat struct{ wantErr bool }

func (f fixedFormat) CheckFormat(v any) error {
	if f.wantErr {
		return errors.New("bad format")
	}
	return nil
}

func TestEvaluateFormat(t *testing.T) {
	s := &Schema{Format: "custom"}
	opts := &Options{
		RequireFormatValidation: true,
		FormatCheckers:          map[string]FormatChecker{"custom": fixedFormat{wantErr: true}},
	}
	if mustEvaluate(t, s, "x", opts).Valid {
		t.Error("expected invalid")
	}
	opts.FormatCheckers["custom"] = fixedFormat{wantErr: false}
	if !mustEvaluate(t, s, "x", opts).Valid {
		t.Error("expected valid")
	}
}

func TestEvaluateContentSchemaIsAnnotationOnly(t *testing.T) {
	s := &Schema{
		ContentMediaType: "application/json",
		ContentSchema:    &Schema{Type: "integer"},
	}
	// contentSchema never applies to the instance, so a string that would
	// fail the nested integer schema if it were evaluated still validates.
	res := mustEvaluate(t, s, "not an integer", nil)
	if !res.Valid {
		t.Error("expected valid: contentSchema must not be applied to the instance")
	}
}

func TestEvaluateCustomKeywordDispatch(t *testing.T) {
	registry := DefaultRegistry.Clone()
	called := false
	if err := registry.Register(&KeywordDescriptor{
		Name: "x-range",
		Eval: func(e *evalState, raw []byte, instance any, kwLoc, instLoc Pointer) *KeywordEvaluation {
			called = true
			return &KeywordEvaluation{Keyword: "x-range", Valid: true}
		},
	}); err != nil {
		t.Fatal(err)
	}
	data := []byte(`{"x-range": [0, 10]}`)
	var s *Schema
	mustUnmarshal(t, data, &s)
	opts := &Options{Registry: registry}
	if !mustEvaluate(t, s, 5.0, opts).Valid {
		t.Error("expected valid")
	}
	if !called {
		t.Error("custom Eval function was not invoked")
	}
}

func TestEvaluateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Schema{Type: "string"}
	rs, err := s.Resolve("", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rs.Evaluate("x", &Options{CancellationToken: ctx})
	if err == nil {
		t.Fatal("expected a Cancelled error")
	}
	if _, ok := err.(*Cancelled); !ok {
		t.Errorf("got %T, want *Cancelled", err)
	}
}

func TestEvaluateMaxRefDepthExceeded(t *testing.T) {
	s := &Schema{Ref: "#"} // refers to itself: infinite recursion
	rs, err := s.Resolve("", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = rs.Evaluate(map[string]any{}, &Options{MaxRefDepth: 5})
	if err == nil {
		t.Fatal("expected a recursion-limit error")
	}
}

func TestEvaluateDynamicRef(t *testing.T) {
	list := &Schema{
		ID:            "http://example.com/list.json",
		DynamicAnchor: "item",
		Properties: map[string]*Schema{
			"items": {Type: "array", Items: &Schema{DynamicRef: "#item"}},
		},
	}
	// root's resource overrides the "item" anchor with a stricter schema;
	// because $dynamicRef resolves against the outermost matching anchor on
	// the dynamic scope stack, items must satisfy root's override, not list's.
	root := &Schema{
		ID: "http://example.com/root.json",
		Defs: map[string]*Schema{
			"list": list,
			"item": {DynamicAnchor: "item", Type: "integer"},
		},
		Ref: "#/$defs/list",
	}

	rs, err := root.Resolve("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res, err := rs.Evaluate(map[string]any{"items": []any{1.0, 2.0}}, nil); err != nil {
		t.Fatal(err)
	} else if !res.Valid {
		t.Error("expected valid: outermost dynamic anchor (integer) applies to each item")
	}
	if res, err := rs.Evaluate(map[string]any{"items": []any{"not an integer"}}, nil); err != nil {
		t.Fatal(err)
	} else if res.Valid {
		t.Error("expected invalid: item does not satisfy the outermost dynamic anchor")
	}
}

// TestEvaluateInternalInvariantViolationCarriesRunID corrupts a schema's
// dynamic-ref resolution fields (which resolve.go is supposed to always
// leave in a consistent state) and checks that the resulting
// InternalInvariantViolation carries a distinct RunID per call, so that
// concurrent runs hitting the same bug can be told apart in a log.
func TestEvaluateInternalInvariantViolationCarriesRunID(t *testing.T) {
	s := &Schema{Anchor: "item", DynamicRef: "#item"}
	rs, err := s.Resolve("", nil)
	if err != nil {
		t.Fatal(err)
	}
	// Both resolvedDynamicRef and dynamicRefAnchor unset violates the
	// invariant resolveDynamic asserts.
	rs.root.resolvedDynamicRef = nil
	rs.root.dynamicRefAnchor = ""

	_, err1 := rs.Evaluate(map[string]any{}, nil)
	_, err2 := rs.Evaluate(map[string]any{}, nil)

	var v1, v2 *InternalInvariantViolation
	if !errors.As(err1, &v1) {
		t.Fatalf("call 1: got %v, want *InternalInvariantViolation", err1)
	}
	if !errors.As(err2, &v2) {
		t.Fatalf("call 2: got %v, want *InternalInvariantViolation", err2)
	}
	if v1.RunID == v2.RunID {
		t.Error("two Evaluate calls produced the same RunID")
	}
	if v1.RunID == uuid.Nil || v2.RunID == uuid.Nil {
		t.Error("RunID was left zero")
	}
}

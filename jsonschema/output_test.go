// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"testing"
)

func TestOutputFlag(t *testing.T) {
	res := mustEvaluate(t, &Schema{Type: "string"}, "x", nil)
	out := res.Output(Flag)
	fo, ok := out.(*FlagOutput)
	if !ok {
		t.Fatalf("got %T, want *FlagOutput", out)
	}
	if !fo.Valid {
		t.Error("got Valid=false, want true")
	}
}

func TestOutputBasicListsEveryKeyword(t *testing.T) {
	s := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"n": {Type: "number", Minimum: Ptr(0.0)}},
		Required:   []string{"n"},
	}
	res := mustEvaluate(t, s, map[string]any{"n": -1.0}, nil)
	out := res.Output(Basic)
	unit, ok := out.(*OutputUnit)
	if !ok {
		t.Fatalf("got %T, want *OutputUnit", out)
	}
	if unit.Valid {
		t.Error("expected overall invalid")
	}
	var names []string
	var walk func(u *OutputUnit)
	walk = func(u *OutputUnit) {
		for _, d := range u.Details {
			names = append(names, d.KeywordLocation)
			walk(d)
		}
	}
	walk(unit)
	foundMinimum := false
	for _, n := range names {
		if n == "/properties/n/minimum" {
			foundMinimum = true
		}
	}
	if !foundMinimum {
		t.Errorf("Basic output did not include the failing nested keyword; got locations %v", names)
	}
}

func TestOutputDetailedPrunesRedundantNodes(t *testing.T) {
	s := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"a": {Type: "string"}, "b": {Type: "string"}},
	}
	res := mustEvaluate(t, s, map[string]any{"a": "x", "b": "y"}, nil)
	out := res.Output(Detailed)
	unit, ok := out.(*OutputUnit)
	if !ok {
		t.Fatalf("got %T, want *OutputUnit", out)
	}
	if !unit.Valid {
		t.Error("expected valid")
	}
	if len(unit.Details) != 0 {
		t.Errorf("expected a fully-valid tree to prune down to no Details, got %d", len(unit.Details))
	}
}

func TestOutputDetailedKeepsFailingBranch(t *testing.T) {
	s := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{"a": {Type: "string"}, "b": {Type: "string"}},
	}
	res := mustEvaluate(t, s, map[string]any{"a": "x", "b": 1.0}, nil)
	out := res.Output(Detailed)
	unit := out.(*OutputUnit)
	if unit.Valid {
		t.Fatal("expected invalid")
	}
	if len(unit.Details) == 0 {
		t.Error("expected the failing branch to survive pruning")
	}
}

func TestOutputVerboseIncludesAnnotations(t *testing.T) {
	s := &Schema{Format: "date-time", Default: mustRawMessage(t, `"2020-01-01"`)}
	res := mustEvaluate(t, s, "x", nil)
	out := res.Output(Verbose)
	unit := out.(*OutputUnit)
	var sawFormat, sawDefault bool
	for _, d := range unit.Details {
		switch {
		case d.Annotation == "date-time":
			sawFormat = true
		case d.Annotation == "2020-01-01":
			sawDefault = true
		}
	}
	if !sawFormat {
		t.Error("verbose output missing the format annotation")
	}
	if !sawDefault {
		t.Error("verbose output missing the default annotation")
	}
}

func mustRawMessage(t *testing.T, s string) []byte {
	t.Helper()
	return []byte(s)
}

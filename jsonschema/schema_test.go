// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustUnmarshal(t *testing.T, data []byte, ptr any) {
	t.Helper()
	if err := json.Unmarshal(data, ptr); err != nil {
		t.Fatal(err)
	}
}

func decodeGeneric(t *testing.T, data []byte) any {
	t.Helper()
	v, err := decodeJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestSchemaGoRoundTrip(t *testing.T) {
	for _, s := range []*Schema{
		{Type: "null"},
		{Types: []string{"null", "number"}},
		{Type: "string", MinLength: Ptr(20)},
		{Minimum: Ptr(20.0)},
		{Items: &Schema{Type: "integer"}},
		{ItemsArray: []*Schema{{Type: "string"}, {Type: "number"}}},
		{Const: Ptr(any(0))},
		{Const: Ptr(any(nil))},
		{Default: json.RawMessage(`1`)},
		{Extra: map[string]json.RawMessage{"x-custom": json.RawMessage(`true`)}},
	} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal %+v: %v", s, err)
		}
		var got *Schema
		mustUnmarshal(t, data, &got)
		gotData, err := json.Marshal(got)
		if err != nil {
			t.Fatal(err)
		}
		wantGeneric := decodeGeneric(t, data)
		gotGeneric := decodeGeneric(t, gotData)
		if diff := cmp.Diff(wantGeneric, gotGeneric); diff != "" {
			t.Errorf("round trip of %s mismatch:\n%s", data, diff)
		}
	}
}

func TestSchemaBooleanForms(t *testing.T) {
	var s *Schema
	mustUnmarshal(t, []byte(`true`), &s)
	if s.Not != nil {
		t.Errorf("true schema should have no Not, got %+v", s)
	}

	mustUnmarshal(t, []byte(`false`), &s)
	if s.Not == nil {
		t.Errorf("false schema should have Not set, got %+v", s)
	}
}

func TestSchemaItemsShapeDispatch(t *testing.T) {
	var obj *Schema
	mustUnmarshal(t, []byte(`{"items": {"type": "string"}}`), &obj)
	if obj.Items == nil || obj.ItemsArray != nil {
		t.Errorf("object-shaped items: got Items=%v ItemsArray=%v", obj.Items, obj.ItemsArray)
	}

	var arr *Schema
	mustUnmarshal(t, []byte(`{"items": [{"type": "string"}, {"type": "number"}]}`), &arr)
	if arr.Items != nil || len(arr.ItemsArray) != 2 {
		t.Errorf("array-shaped items: got Items=%v ItemsArray=%v", arr.Items, arr.ItemsArray)
	}
}

func TestSchemaExtraRoundTrip(t *testing.T) {
	const in = `{"type":"string","x-vendor":{"a":1},"x-flag":true}`
	var s *Schema
	mustUnmarshal(t, []byte(in), &s)
	if s.Type != "string" {
		t.Fatalf("got Type %q, want %q", s.Type, "string")
	}
	if len(s.Extra) != 2 {
		t.Fatalf("got %d Extra members, want 2: %v", len(s.Extra), s.Extra)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(decodeGeneric(t, []byte(in)), decodeGeneric(t, data)); diff != "" {
		t.Errorf("mismatch after round trip:\n%s", diff)
	}
}

func TestSchemaBasicChecksRejectsConflictingFields(t *testing.T) {
	for _, s := range []*Schema{
		{Type: "string", Types: []string{"string", "number"}},
		{Defs: map[string]*Schema{}, Definitions: map[string]*Schema{}},
		{Items: &Schema{}, ItemsArray: []*Schema{{}}},
	} {
		if err := s.basicChecks(); err == nil {
			t.Errorf("basicChecks(%+v) = nil, want error", s)
		}
	}
}

func TestInferDraft(t *testing.T) {
	for _, tt := range []struct {
		schema string
		want   Draft
	}{
		{"", Draft2020_12},
		{"http://json-schema.org/draft-07/schema#", Draft7},
		{"https://json-schema.org/draft/2019-09/schema", Draft2019_09},
		{"https://json-schema.org/draft/2020-12/schema", Draft2020_12},
		{"https://example.com/unknown", Draft2020_12},
	} {
		if got := inferDraft(tt.schema); got != tt.want {
			t.Errorf("inferDraft(%q) = %v, want %v", tt.schema, got, tt.want)
		}
	}
}

func TestSchemaEveryChild(t *testing.T) {
	s := &Schema{
		Properties: map[string]*Schema{"a": {Type: "string"}},
		AllOf:      []*Schema{{Type: "number"}, {Type: "integer"}},
		Not:        &Schema{Type: "null"},
	}
	var types []string
	s.everyChild(func(c *Schema) bool {
		types = append(types, c.Type)
		return true
	})
	if len(types) != 4 {
		t.Errorf("got %d children, want 4: %v", len(types), types)
	}
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the two "default" keyword operations the JSON
// Schema specification leaves to implementations to define: checking that
// a schema's declared defaults actually validate against it, and filling
// in an instance's missing properties from their subschema's default.

package jsonschema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// ValidateDefaults walks rs's schema tree and, for every schema or
// subschema with a "default" value, validates that value against the
// schema it annotates. It does not modify any instance; call
// [Resolved.ApplyDefaults] for that.
//
// ValidateDefaults returns an error for a "default" on a schema that itself
// has a $dynamicRef/$recursiveRef, since a dynamic reference's target
// depends on the dynamic scope it is evaluated in, and a default has no
// such scope of its own.
func (rs *Resolved) ValidateDefaults(opts *Options) (err error) {
	runID := uuid.New()
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok && strings.HasPrefix(msg, "jsonschema: invariant violated:") {
				err = &InternalInvariantViolation{Msg: msg, RunID: runID}
				return
			}
			panic(r)
		}
	}()
	e := &evalState{rs: rs, opts: opts, registry: opts.registry(), draft: opts.draft(rs.root), runID: runID}
	for s := range rs.root.all() {
		if s.Default == nil {
			continue
		}
		if s.DynamicRef != "" || s.RecursiveRef != "" {
			return fmt.Errorf("jsonschema: %s: ValidateDefaults does not support dynamic refs", s)
		}
		d, err := decodeJSON(s.Default)
		if err != nil {
			return fmt.Errorf("jsonschema: unmarshaling default value of schema %s: %w", s, err)
		}
		se, _, err := e.evaluate(reflect.ValueOf(d), s, Pointer{})
		if err != nil {
			return err
		}
		if !se.Valid {
			return fmt.Errorf("jsonschema: default value of schema %s does not validate against it: %s", s, firstError(se))
		}
	}
	return nil
}

// ApplyDefaults fills in missing, non-required properties of instance with
// the default value declared by rs.root's corresponding subschema's
// "default" keyword. A property already present in instance, or with no
// declared default, or named in rs.root's "required", is left untouched.
//
// JSON Schema does not define how "default" should affect instances;
// ApplyDefaults implements one reasonable interpretation, limited to
// rs.root's own properties rather than those of nested subschemas.
func (rs *Resolved) ApplyDefaults(instance map[string]any) error {
	if instance == nil {
		return fmt.Errorf("jsonschema: ApplyDefaults: instance is nil")
	}
	for prop, subschema := range rs.root.Properties {
		if rs.root.isRequired[prop] || subschema.Default == nil {
			continue
		}
		if _, has := instance[prop]; has {
			continue
		}
		d, err := decodeJSON(subschema.Default)
		if err != nil {
			return fmt.Errorf("jsonschema: unmarshaling default value of schema %s: %w", subschema, err)
		}
		instance[prop] = d
	}
	return nil
}

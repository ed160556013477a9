// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the Constraint Compiler's public entry point:
// Compile wraps Schema.Resolve with optional meta-schema validation, and
// merges concurrent calls for the same schema value, base URI and draft
// into one resolution. No result is kept once those calls return: a later
// call resolves the schema again.

package jsonschema

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Compile resolves schema against baseURI and returns a [Resolved] ready
// for [Resolved.Evaluate]. Calling Compile concurrently for the same
// schema value and baseURI does the resolution work once via
// [golang.org/x/sync/singleflight]; the others block on and share its
// result.
//
// If opts.ValidateAgainstMetaSchema is set, Compile also fetches the
// meta-schema named by schema's "$schema" keyword (via opts.SchemaRegistry,
// which must be set) and validates schema's own JSON representation
// against it before returning.
func Compile(schema *Schema, baseURI string, opts *Options) (*Resolved, error) {
	key := fmt.Sprintf("%p|%s|%s", schema, baseURI, opts.draft(schema))
	v, err, _ := compileGroup.Do(key, func() (any, error) {
		return compile(schema, baseURI, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolved), nil
}

var compileGroup singleflight.Group

func compile(schema *Schema, baseURI string, opts *Options) (*Resolved, error) {
	rs, err := schema.Resolve(baseURI, opts)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.ValidateAgainstMetaSchema {
		if err := rs.validateAgainstMetaSchema(opts); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// validateAgainstMetaSchema validates rs.root's own JSON representation
// against the meta-schema for rs.root's draft, fetched through
// opts.SchemaRegistry.
func (rs *Resolved) validateAgainstMetaSchema(opts *Options) error {
	if opts.SchemaRegistry == nil {
		return fmt.Errorf("jsonschema: ValidateAgainstMetaSchema requires a SchemaRegistry")
	}
	metaURI := rs.root.Schema
	if metaURI == "" {
		metaURI = draftMetaSchemaURI(opts.draft(rs.root))
	}
	meta, err := opts.SchemaRegistry(metaURI)
	if err != nil {
		return fmt.Errorf("jsonschema: fetching meta-schema %s: %w", metaURI, err)
	}
	metaRS, err := meta.Resolve(metaURI, opts)
	if err != nil {
		return fmt.Errorf("jsonschema: resolving meta-schema %s: %w", metaURI, err)
	}
	data, err := json.Marshal(rs.root)
	if err != nil {
		return fmt.Errorf("jsonschema: marshaling schema for meta-schema validation: %w", err)
	}
	instance, err := decodeJSON(data)
	if err != nil {
		return fmt.Errorf("jsonschema: decoding schema for meta-schema validation: %w", err)
	}
	res, err := metaRS.Evaluate(instance, opts)
	if err != nil {
		return fmt.Errorf("jsonschema: evaluating against meta-schema %s: %w", metaURI, err)
	}
	if !res.Valid {
		return fmt.Errorf("jsonschema: schema does not conform to its meta-schema %s", metaURI)
	}
	return nil
}

func draftMetaSchemaURI(d Draft) string {
	for uri, dd := range draftSchemaURIs {
		if dd == d {
			return uri
		}
	}
	return "https://json-schema.org/draft/2020-12/schema"
}

// Validate is a convenience wrapper around Compile and [Resolved.Evaluate]
// that reports only pass/fail, trading away per-keyword results for a
// single error. It returns a non-nil error both for infrastructure
// failures and for a failed validation; to distinguish the two, or to see
// why validation failed, call Compile and [Resolved.Evaluate] directly
// instead.
func Validate(schema *Schema, baseURI string, instance any, opts *Options) error {
	rs, err := Compile(schema, baseURI, opts)
	if err != nil {
		return err
	}
	res, err := rs.Evaluate(instance, opts)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("jsonschema: instance does not validate against schema: %s", firstError(res.Root))
	}
	return nil
}

// firstError returns a human-readable description of the first invalid
// keyword found in a depth-first walk of se, for use in Validate's error
// message.
func firstError(se *SchemaEvaluation) string {
	if se == nil {
		return "<unknown>"
	}
	for _, kw := range se.Keywords {
		if kw.Valid {
			continue
		}
		if kw.Error != "" {
			return fmt.Sprintf("%s: %s: %s", kw.InstanceLocation, kw.Keyword, kw.Error)
		}
		for _, child := range kw.Children {
			if !child.Valid {
				return firstError(child)
			}
		}
		return fmt.Sprintf("%s: %s", kw.InstanceLocation, kw.Keyword)
	}
	return "<unknown>"
}

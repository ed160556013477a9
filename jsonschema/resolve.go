// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the Reference Resolver: assigning every subschema
// its base URI and anchor map, and resolving $ref/$dynamicRef/
// $recursiveRef to the schemas they point to, ahead of evaluation.

package jsonschema

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
)

// A Resolved consists of a [Schema] along with the information needed to
// evaluate instances against it: every subschema's base URI and anchors,
// and every reference resolved to the schema it targets.
// Call [Schema.Resolve] to obtain a Resolved from a Schema.
type Resolved struct {
	root *Schema
	// map from absolute URI (and $anchor fragments) to their schemas
	byURI map[string]*Schema
	opts  *Options
}

// Root returns the resolved schema tree's root.
func (rs *Resolved) Root() *Schema { return rs.root }

// Resolve checks s for well-formedness, assigns base URIs and anchors to
// every subschema, and resolves every $ref/$dynamicRef/$recursiveRef to
// its target schema. baseURI may be empty or an absolute URI; it is
// resolved, in the URI sense, against the root schema's own $id, if any.
//
// Resolve is the step that must run once per schema, whose result
// ([Resolved]) can then drive any number of [Resolved.Evaluate] calls
// concurrently.
func (root *Schema) Resolve(baseURI string, opts *Options) (*Resolved, error) {
	if root == nil {
		return nil, errors.New("jsonschema: nil schema")
	}
	draft := opts.draft(root)
	for s := range root.all() {
		s.draft = draft
	}

	if err := root.checkAll(draft); err != nil {
		return nil, err
	}
	if err := root.checkCustomKeywords(opts); err != nil {
		return nil, err
	}

	var base *url.URL
	if baseURI == "" {
		base = &url.URL{}
	} else {
		var err error
		base, err = url.Parse(baseURI)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: parsing base URI: %w", err)
		}
	}
	byURI, err := resolveURIs(root, base)
	if err != nil {
		return nil, err
	}
	rs := &Resolved{root: root, byURI: byURI, opts: opts}
	if err := rs.resolveRefs(); err != nil {
		return nil, err
	}
	return rs, nil
}

// checkAll runs the local well-formedness checks over every subschema,
// collecting all errors rather than stopping at the first.
func (root *Schema) checkAll(draft Draft) error {
	var errs []error
	for s := range root.all() {
		s.checkLocal(draft, func(err error) { errs = append(errs, err) })
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// checkLocal checks s for validity independently of other schemas it may
// refer to, and precomputes compiled regexps for later use.
func (s *Schema) checkLocal(draft Draft, report func(error)) {
	if s == nil {
		report(errors.New("jsonschema: nil subschema"))
		return
	}
	if err := s.basicChecks(); err != nil {
		report(&SchemaError{Kind: InvalidKeywordForm, Schema: s, Msg: err.Error()})
		return
	}

	// The array form of "items" co-occurring with "prefixItems" is
	// ambiguous under 2019-09, which has both keywords but gives them
	// overlapping meanings; reject it rather than guess. This resolves the
	// corresponding Open Question (see DESIGN.md).
	if draft == Draft2019_09 && s.ItemsArray != nil && s.PrefixItems != nil {
		report(schemaErrorf(InvalidKeywordForm, s, "items",
			"array-form items may not be used together with prefixItems under 2019-09"))
	}
	// The array form of "items" does not exist at all in 2020-12 or next.
	if (draft == Draft2020_12 || draft == DraftNext) && s.ItemsArray != nil {
		report(schemaErrorf(InvalidKeywordForm, s, "items",
			"the array form of items is not valid under %s; use prefixItems", draft))
	}

	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			report(schemaErrorf(InvalidPattern, s, "pattern", "%v", err))
		} else {
			s.pattern = re
		}
	}
	if len(s.PatternProperties) > 0 {
		s.patternProperties = map[*regexp.Regexp]*Schema{}
		for reString, subschema := range s.PatternProperties {
			re, err := regexp.Compile(reString)
			if err != nil {
				report(schemaErrorf(InvalidPattern, s, "patternProperties", "%q: %v", reString, err))
				continue
			}
			s.patternProperties[re] = subschema
		}
	}
	if s.Required != nil {
		s.isRequired = map[string]bool{}
		for _, p := range s.Required {
			s.isRequired[p] = true
		}
	}
}

// checkCustomKeywords rejects schemas containing an Extra member the
// active Registry has no descriptor for, when opts.ProcessCustomKeywords
// is ErrorOnCustomKeywords. For the default (AnnotateCustomKeywords) and
// IgnoreCustomKeywords policies there is nothing to check here; the
// driver decides what to do with each Extra member per instance.
func (root *Schema) checkCustomKeywords(opts *Options) error {
	if opts == nil || opts.ProcessCustomKeywords != ErrorOnCustomKeywords {
		return nil
	}
	reg := opts.registry()
	var errs []error
	for s := range root.all() {
		for name := range s.Extra {
			if _, ok := reg.Lookup(name); !ok {
				errs = append(errs, schemaErrorf(UnknownKeyword, s, name, "unrecognized keyword"))
			}
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// resolveURIs resolves the ids and anchors in all the schemas of root,
// relative to baseURI.
// See https://json-schema.org/draft/2020-12/json-schema-core#section-8.2.
//
// Every schema has a base URI and a parent base URI. The parent base URI
// is the base URI of the lexically enclosing schema, or for the root
// schema, the URI it was loaded from or the one supplied to
// [Schema.Resolve]. If the schema has no $id, its base URI is that of its
// parent. If it does have an $id, the base URI is the $id resolved (in
// the sense of [url.URL.ResolveReference]) against the parent base.
//
// As an example, consider this schema loaded from http://a.com/root.json:
//
//	{
//	    allOf: [
//	        {$id: "sub1.json", minLength: 5},
//	        {$id: "http://b.com", minimum: 10},
//	        {not: {maximum: 20}}
//	    ]
//	}
//
// The base URIs are as follows (schema locations in JSON Pointer notation):
//
//	schema         base URI
//	root           http://a.com/root.json
//	allOf/0        http://a.com/sub1.json
//	allOf/1        http://b.com
//	allOf/2        http://a.com/root.json (inherited from parent)
//	allOf/2/not    http://a.com/root.json (inherited from parent)
func resolveURIs(root *Schema, baseURI *url.URL) (map[string]*Schema, error) {
	byURI := map[string]*Schema{}

	var resolve func(s, base *Schema, path Pointer) error
	resolve = func(s, base *Schema, path Pointer) error {
		s.path = path
		if s.ID == "" {
			if s != root {
				s.base = base
				s.uri = nil
			}
		} else {
			idURI, err := url.Parse(s.ID)
			if err != nil {
				return schemaErrorf(InvalidReference, s, "$id", "%v", err)
			}
			if idURI.Fragment != "" {
				return schemaErrorf(InvalidReference, s, "$id", "must not have a fragment")
			}
			resolvedURI := base.uri.ResolveReference(idURI)
			if !resolvedURI.IsAbs() {
				return schemaErrorf(InvalidReference, s, "$id",
					"%s does not resolve to an absolute URI (base is %s)", s.ID, base.uri)
			}
			s.uri = resolvedURI
			s.base = s
			byURI[resolvedURI.String()] = s
			base = s
		}

		if s.Anchor != "" {
			if err := base.addAnchor(s.Anchor, s, false); err != nil {
				return err
			}
		}
		if s.DynamicAnchor != "" {
			if err := base.addAnchor(s.DynamicAnchor, s, true); err != nil {
				return err
			}
		}
		if s.RecursiveAnchor {
			// $recursiveAnchor is a bare boolean: the schema itself is the
			// dynamic anchor, under the implicit name used by
			// $recursiveRef. Modeled as an ordinary dynamic anchor so the
			// driver's resolveDynamic needs only one code path.
			if err := base.addAnchor(recursiveAnchorName, s, true); err != nil {
				return err
			}
		}

		for c := range s.children() {
			if err := resolve(c, base, childPath(s, c, path)); err != nil {
				return err
			}
		}
		return nil
	}

	root.uri = baseURI
	root.base = root
	byURI[baseURI.String()] = root
	if err := resolve(root, root, Pointer{}); err != nil {
		return nil, err
	}
	return byURI, nil
}

// recursiveAnchorName is the synthetic anchor name $recursiveRef resolves
// against, distinct from any user-chosen $dynamicAnchor name.
const recursiveAnchorName = "\x00recursive"

func (s *Schema) addAnchor(name string, target *Schema, dynamic bool) error {
	if s.anchors == nil {
		s.anchors = map[string]anchorInfo{}
	}
	if existing, ok := s.anchors[name]; ok && existing.schema != target {
		return schemaErrorf(InvalidReference, s, "$anchor", "duplicate anchor %q", name)
	}
	s.anchors[name] = anchorInfo{schema: target, dynamic: dynamic}
	return nil
}

// childPath finds the JSON Pointer segments from parent to child by
// scanning parent's schema-valued fields. It's O(n) in the number of
// schema fields, which is fine: schemas are small.
func childPath(parent, child *Schema, parentPath Pointer) Pointer {
	for _, seg := range findChildSegment(parent, child) {
		parentPath = parentPath.Append(seg)
	}
	return parentPath
}

// findChildSegment returns the segments under which child appears in
// parent: the keyword name, followed by the object key or array index
// when the keyword holds a map or an array of schemas. It returns nil if
// child is not an immediate child (shouldn't happen, since callers only
// call this from everyChild).
func findChildSegment(parent, child *Schema) []any {
	v := reflect.ValueOf(parent).Elem()
	for _, info := range schemaFieldInfos {
		fv := v.FieldByIndex(info.sf.Index)
		switch info.sf.Type {
		case schemaType:
			if c, _ := fv.Interface().(*Schema); c == child {
				return []any{info.jsonName}
			}
		case schemaSliceType:
			for i, c := range fv.Interface().([]*Schema) {
				if c == child {
					return []any{info.jsonName, i}
				}
			}
		case schemaMapType:
			for k, c := range fv.Interface().(map[string]*Schema) {
				if c == child {
					return []any{info.jsonName, k}
				}
			}
		}
	}
	return nil
}

// resolveRefs resolves every $ref, $dynamicRef, and $recursiveRef in the
// tree to its target schema (or, for dynamic refs with no static target,
// records the anchor name to look up dynamically at evaluation time).
func (rs *Resolved) resolveRefs() error {
	for s := range rs.root.all() {
		if s.Ref != "" {
			target, err := rs.resolveURI(s, s.Ref)
			if err != nil {
				return err
			}
			s.resolvedRef = target
		}
		if s.DynamicRef != "" {
			if err := rs.resolveOneDynamicRef(s, s.DynamicRef); err != nil {
				return err
			}
		}
		if s.RecursiveRef != "" {
			// $recursiveRef's value is always "#": a fragmentless
			// self-reference that dynamically resolves against the
			// outermost $recursiveAnchor: true in scope. Model it as
			// $dynamicRef to the synthetic recursive anchor name.
			lexicalTarget, err := rs.resolveURI(s, "#")
			if err != nil {
				return err
			}
			if lexicalTarget.RecursiveAnchor {
				s.dynamicRefAnchor = recursiveAnchorName
			} else {
				s.resolvedDynamicRef = lexicalTarget
			}
		}
	}
	return nil
}

// resolveOneDynamicRef resolves a $dynamicRef value, deciding whether it
// behaves statically (like $ref, when its fragment does not name a
// $dynamicAnchor anywhere in scope) or dynamically (when it does, in which
// case the driver must look it up on the dynamic-scope stack at evaluation
// time rather than follow a fixed target).
func (rs *Resolved) resolveOneDynamicRef(s *Schema, ref string) error {
	refURI, err := url.Parse(ref)
	if err != nil {
		return schemaErrorf(InvalidReference, s, "$dynamicRef", "%v", err)
	}
	var baseURI *url.URL
	if s.base != nil && s.base.uri != nil {
		baseURI = s.base.uri
	} else {
		baseURI = &url.URL{}
	}
	target := baseURI.ResolveReference(refURI)
	withoutFrag := *target
	withoutFrag.Fragment = ""

	dynamic := false
	if target.Fragment != "" {
		if idBase, ok := rs.byURI[withoutFrag.String()]; ok {
			if info, found := idBase.anchors[target.Fragment]; found {
				dynamic = info.dynamic
			}
		}
	}

	resolved, err := rs.resolveURI(s, ref)
	if err != nil {
		return err
	}
	if dynamic {
		s.dynamicRefAnchor = target.Fragment
	} else {
		s.resolvedDynamicRef = resolved
	}
	return nil
}

// resolveURI resolves ref (a URI reference, possibly with a #fragment)
// against s's base URI, returning the schema it identifies.
func (rs *Resolved) resolveURI(s *Schema, ref string) (*Schema, error) {
	refURI, err := url.Parse(ref)
	if err != nil {
		return nil, schemaErrorf(InvalidReference, s, "$ref", "%v", err)
	}
	var base *url.URL
	if s.base != nil && s.base.uri != nil {
		base = s.base.uri
	} else {
		base = &url.URL{}
	}
	target := base.ResolveReference(refURI)

	if target.Fragment != "" && !looksLikeJSONPointer(target.Fragment) {
		// A non-JSON-Pointer fragment is a plain $anchor reference.
		withoutFrag := *target
		withoutFrag.Fragment = ""
		if base, ok := rs.byURI[withoutFrag.String()]; ok {
			if info, ok := base.anchors[target.Fragment]; ok {
				return info.schema, nil
			}
		}
		return nil, rs.lookupExternal(target.String())
	}

	withoutFrag := *target
	withoutFrag.Fragment = ""
	root, ok := rs.byURI[withoutFrag.String()]
	if !ok {
		ext, err := rs.lookupExternalSchema(withoutFrag.String())
		if err != nil {
			return nil, err
		}
		root = ext
	}
	if target.Fragment == "" {
		return root, nil
	}
	p, err := ParsePointer(target.Fragment)
	if err != nil {
		return nil, schemaErrorf(InvalidReference, s, "$ref", "bad fragment %q", target.Fragment)
	}
	found := lookupPointer(root, p)
	if found == nil {
		return nil, resolutionErrorf(SchemaNotFound, target.String(), "no schema at pointer %s", p)
	}
	return found, nil
}

func (rs *Resolved) lookupExternal(uri string) error {
	return resolutionErrorf(SchemaNotFound, uri, "no anchor found and no SchemaRegistry configured")
}

func (rs *Resolved) lookupExternalSchema(uri string) (*Schema, error) {
	if rs.opts == nil || rs.opts.SchemaRegistry == nil {
		return nil, resolutionErrorf(SchemaNotFound, uri, "unresolved and no SchemaRegistry configured")
	}
	s, err := rs.opts.SchemaRegistry(uri)
	if err != nil {
		return nil, resolutionErrorf(SchemaNotFound, uri, "%v", err)
	}
	if s == nil {
		return nil, resolutionErrorf(SchemaNotFound, uri, "SchemaRegistry returned nil")
	}
	sub, err := s.Resolve(uri, rs.opts)
	if err != nil {
		return nil, err
	}
	for k, v := range sub.byURI {
		rs.byURI[k] = v
	}
	return s, nil
}

func looksLikeJSONPointer(fragment string) bool {
	return fragment == "" || fragment[0] == '/'
}

// lookupPointer dereferences p against root's schema tree, following the
// same field-name and container rules as the JSON representation: an
// object-keyword segment (e.g. "properties") is followed by either another
// segment naming a map key, or (for the single-schema keywords) nothing
// further needed before the next hop; an array-keyword segment
// (e.g. "allOf", "prefixItems") is followed by a segment that is a decimal
// index.
func lookupPointer(root *Schema, p Pointer) *Schema {
	cur := root
	segs := p.Segments()
	for i := 0; i < len(segs); i++ {
		if cur == nil {
			return nil
		}
		seg := segs[i]
		sf, ok := schemaFieldMap[seg]
		if !ok {
			return nil
		}
		fv := reflect.ValueOf(cur).Elem().FieldByIndex(sf.Index)
		switch sf.Type {
		case schemaType:
			c, _ := fv.Interface().(*Schema)
			cur = c
		case schemaSliceType:
			i++
			if i >= len(segs) {
				return nil
			}
			idx, err := parsePointerIndex(segs[i])
			if err != nil {
				return nil
			}
			slice := fv.Interface().([]*Schema)
			if idx < 0 || idx >= len(slice) {
				return nil
			}
			cur = slice[idx]
		case schemaMapType:
			i++
			if i >= len(segs) {
				return nil
			}
			m := fv.Interface().(map[string]*Schema)
			cur = m[segs[i]]
		default:
			return nil
		}
	}
	return cur
}

func parsePointerIndex(seg string) (int, error) {
	n := 0
	if seg == "" {
		return 0, fmt.Errorf("empty index")
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a number: %q", seg)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

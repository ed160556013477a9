// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the Evaluation Driver: it walks a compiled schema
// against an instance, producing an EvaluationResults tree, keyword by
// keyword. Every keyword records a KeywordEvaluation node (valid or not,
// with its annotation and any child schema evaluations) instead of
// returning as soon as one keyword fails, so the full tree is available
// for every output format.

package jsonschema

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/maphash"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// A KeywordEvaluation records the outcome of evaluating a single keyword
// of a single schema against a single instance location.
type KeywordEvaluation struct {
	Keyword          string
	KeywordLocation  Pointer // path from the root schema to this keyword
	InstanceLocation Pointer
	Valid            bool
	Error            string // human-readable, set when !Valid
	HasAnnotation    bool
	Annotation       any
	// Children holds the SchemaEvaluations this keyword's evaluation
	// produced: one per matched property for "properties", one per
	// subschema for "allOf"/"anyOf"/"oneOf", one for "$ref", and so on.
	// Most keywords (type, enum, minLength, ...) have none.
	Children []*SchemaEvaluation
}

// A SchemaEvaluation records the outcome of evaluating one schema object
// against one instance location: the per-keyword results, and whether the
// schema as a whole was valid.
type SchemaEvaluation struct {
	Schema           *Schema
	KeywordLocation  Pointer
	InstanceLocation Pointer
	Valid            bool
	Keywords         []*KeywordEvaluation
}

// EvaluationResults is the result of evaluating an instance against a
// schema with [Resolved.Evaluate]. Call [EvaluationResults.Output] to
// flatten it into one of the four standard output formats.
type EvaluationResults struct {
	Valid bool
	Root  *SchemaEvaluation
}

// Evaluate validates instance against rs's schema, returning the full
// evaluation tree. It returns an error only for infrastructure failures:
// cancellation via Options.CancellationToken, exceeding
// Options.MaxRefDepth, or an internal invariant violation. Assertion
// failures are never returned as errors; they show up as invalid nodes in
// the returned [EvaluationResults].
func (rs *Resolved) Evaluate(instance any, opts *Options) (res *EvaluationResults, err error) {
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
	e := &evalState{
		rs:       rs,
		opts:     opts,
		registry: opts.registry(),
		draft:    opts.draft(rs.root),
		runID:    runID,
	}
	se, ann, ierr := e.evaluate(reflect.ValueOf(instance), rs.root, Pointer{})
	if ierr != nil {
		return nil, ierr
	}
	_ = ann
	return &EvaluationResults{Valid: se.Valid, Root: se}, nil
}

// evalState is the state threaded through one call to Resolved.Evaluate.
type evalState struct {
	rs       *Resolved
	opts     *Options
	registry *Registry
	draft    Draft
	// runID identifies this call to Evaluate or ValidateDefaults, so that
	// an InternalInvariantViolation raised partway through can be matched
	// back to its run in a caller's logs even when several runs execute
	// concurrently against the same *Resolved.
	runID uuid.UUID
	// stack holds the schemas from recursive calls to evaluate: the
	// "dynamic scope" used to resolve $dynamicRef/$recursiveRef.
	// https://json-schema.org/draft/2020-12/json-schema-core#scopes
	stack []*Schema
	depth int
}

func (e *evalState) checkCancelled() error {
	if e.opts == nil || e.opts.CancellationToken == nil {
		return nil
	}
	select {
	case <-e.opts.CancellationToken.Done():
		return &Cancelled{Cause: context.Cause(e.opts.CancellationToken)}
	default:
		return nil
	}
}

// evaluate evaluates instance against schema, returning the evaluation
// node, the annotations it produced (for the caller to merge into its
// own), and an infrastructure error.
func (e *evalState) evaluate(instance reflect.Value, schema *Schema, instPath Pointer) (*SchemaEvaluation, *annotations, error) {
	if err := e.checkCancelled(); err != nil {
		return nil, nil, err
	}
	assert(schema != nil, "nil schema")

	e.stack = append(e.stack, schema) // push dynamic scope
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	for instance.Kind() == reflect.Pointer || instance.Kind() == reflect.Interface {
		instance = instance.Elem()
	}

	se := &SchemaEvaluation{
		Schema:           schema,
		KeywordLocation:  schema.path,
		InstanceLocation: instPath,
		Valid:            true,
	}
	var ann annotations

	// add appends a keyword evaluation to se. se.Valid is recomputed from
	// se.Keywords just before evaluate returns, rather than here, so that
	// keywords like anyOf/oneOf that add a placeholder node before their
	// final verdict is known (to collect per-subschema Children) don't
	// prematurely mark the schema invalid.
	add := func(kw *KeywordEvaluation) *KeywordEvaluation {
		kw.KeywordLocation = schema.path.Append(kw.Keyword)
		kw.InstanceLocation = instPath
		se.Keywords = append(se.Keywords, kw)
		return kw
	}
	// ok and fail share a signature so callers (evalArray, evalObject) can
	// be passed either interchangeably.
	ok := func(keyword string, _ ...any) *KeywordEvaluation {
		return add(&KeywordEvaluation{Keyword: keyword, Valid: true})
	}
	fail := func(keyword string, args ...any) *KeywordEvaluation {
		format, rest := args[0].(string), args[1:]
		return add(&KeywordEvaluation{Keyword: keyword, Valid: false, Error: fmt.Sprintf(format, rest...)})
	}

	// type
	if schema.Type != "" || schema.Types != nil {
		gotType, isJSON := jsonType(instance)
		valid := isJSON
		if isJSON {
			if schema.Type != "" {
				valid = gotType == schema.Type || (gotType == "integer" && schema.Type == "number")
			} else {
				valid = slices.Contains(schema.Types, gotType) || (gotType == "integer" && slices.Contains(schema.Types, "number"))
			}
		}
		if valid {
			ok("type")
		} else if isJSON {
			want := schema.Type
			if want == "" {
				want = strings.Join(schema.Types, ", ")
			}
			fail("type", "%v has type %q, want %q", instanceSummary(instance), gotType, want)
		} else {
			fail("type", "%v is not a valid JSON value", instanceSummary(instance))
		}
	}

	// enum
	if schema.Enum != nil {
		valid := false
		for _, v := range schema.Enum {
			if equalValue(reflect.ValueOf(v), instance) {
				valid = true
				break
			}
		}
		if valid {
			ok("enum")
		} else {
			fail("enum", "%v does not equal any of: %v", instanceSummary(instance), schema.Enum)
		}
	}

	// const
	if schema.Const != nil {
		if equalValue(reflect.ValueOf(*schema.Const), instance) {
			ok("const")
		} else {
			fail("const", "%v does not equal %v", instanceSummary(instance), *schema.Const)
		}
	}

	// numbers
	if schema.MultipleOf != nil || schema.Minimum != nil || schema.Maximum != nil ||
		schema.ExclusiveMinimum != nil || schema.ExclusiveMaximum != nil {
		if n, isNum := jsonNumber(instance); isNum {
			if schema.MultipleOf != nil {
				// Both sides are taken as the decimals they print as, so
				// that e.g. 0.3 is a multiple of 0.1.
				x := n
				if instance.CanFloat() {
					x, _ = new(big.Rat).SetString(fmt.Sprint(instance.Float()))
				}
				q, _ := new(big.Rat).SetString(fmt.Sprint(*schema.MultipleOf))
				if x == nil || q == nil || q.Sign() <= 0 || !new(big.Rat).Quo(x, q).IsInt() {
					fail("multipleOf", "%s is not a multiple of %v", n, *schema.MultipleOf)
				} else {
					ok("multipleOf")
				}
			}
			m := new(big.Rat)
			cmp := func(f float64) int { return n.Cmp(m.SetFloat64(f)) }
			if schema.Minimum != nil {
				if cmp(*schema.Minimum) < 0 {
					fail("minimum", "%s is less than %v", n, *schema.Minimum)
				} else {
					ok("minimum")
				}
			}
			if schema.Maximum != nil {
				if cmp(*schema.Maximum) > 0 {
					fail("maximum", "%s is greater than %v", n, *schema.Maximum)
				} else {
					ok("maximum")
				}
			}
			if schema.ExclusiveMinimum != nil {
				if cmp(*schema.ExclusiveMinimum) <= 0 {
					fail("exclusiveMinimum", "%s is less than or equal to %v", n, *schema.ExclusiveMinimum)
				} else {
					ok("exclusiveMinimum")
				}
			}
			if schema.ExclusiveMaximum != nil {
				if cmp(*schema.ExclusiveMaximum) >= 0 {
					fail("exclusiveMaximum", "%s is greater than or equal to %v", n, *schema.ExclusiveMaximum)
				} else {
					ok("exclusiveMaximum")
				}
			}
		}
	}

	// strings
	if instance.Kind() == reflect.String && instance.Type() != reflect.TypeFor[json.Number]() && (schema.MinLength != nil || schema.MaxLength != nil || schema.Pattern != "") {
		str := instance.String()
		n := utf8.RuneCountInString(str)
		if schema.MinLength != nil {
			if m := *schema.MinLength; n < m {
				fail("minLength", "%q has %d code points, fewer than %d", str, n, m)
			} else {
				ok("minLength")
			}
		}
		if schema.MaxLength != nil {
			if m := *schema.MaxLength; n > m {
				fail("maxLength", "%q has %d code points, more than %d", str, n, m)
			} else {
				ok("maxLength")
			}
		}
		if schema.Pattern != "" {
			if schema.pattern != nil && schema.pattern.MatchString(str) {
				ok("pattern")
			} else {
				fail("pattern", "%q does not match %q", str, schema.Pattern)
			}
		}
	}

	// $ref
	if schema.Ref != "" {
		kw := ok("$ref")
		child, cann, err := e.evaluateRef(instance, schema.resolvedRef, instPath)
		if err != nil {
			return nil, nil, err
		}
		kw.Children = []*SchemaEvaluation{child}
		if !child.Valid {
			kw.Valid = false
			kw.Error = fmt.Sprintf("does not validate against %s", schema.resolvedRef)
			se.Valid = false
		}
		ann.merge(cann)
	}

	// $dynamicRef / $recursiveRef
	if schema.DynamicRef != "" || schema.RecursiveRef != "" {
		name := "$dynamicRef"
		if schema.RecursiveRef != "" {
			name = "$recursiveRef"
		}
		target, err := e.resolveDynamic(schema)
		if err != nil {
			fail(name, "%v", err)
		} else {
			kw := ok(name)
			child, cann, err := e.evaluateRef(instance, target, instPath)
			if err != nil {
				return nil, nil, err
			}
			kw.Children = []*SchemaEvaluation{child}
			if !child.Valid {
				kw.Valid = false
				kw.Error = fmt.Sprintf("does not validate against %s", target)
				se.Valid = false
			}
			ann.merge(cann)
		}
	}

	// logic: allOf/anyOf/oneOf/not/if-then-else must run before arrays and
	// objects, because they may evaluate items/properties that
	// unevaluatedItems/unevaluatedProperties must then see as evaluated.
	evalChild := func(s *Schema) (*SchemaEvaluation, *annotations, error) {
		return e.evaluate(instance, s, instPath)
	}

	if schema.AllOf != nil {
		kw := ok("allOf")
		for _, ss := range schema.AllOf {
			child, cann, err := evalChild(ss)
			if err != nil {
				return nil, nil, err
			}
			kw.Children = append(kw.Children, child)
			if child.Valid {
				ann.merge(cann)
			} else {
				kw.Valid = false
			}
		}
		if !kw.Valid {
			kw.Error = "not all subschemas of allOf were valid"
			se.Valid = false
		}
	}
	if schema.AnyOf != nil {
		kw := add(&KeywordEvaluation{Keyword: "anyOf"})
		anyValid := false
		for _, ss := range schema.AnyOf {
			child, cann, err := evalChild(ss)
			if err != nil {
				return nil, nil, err
			}
			kw.Children = append(kw.Children, child)
			if child.Valid {
				anyValid = true
				ann.merge(cann)
			}
		}
		kw.Valid = anyValid
		if !anyValid {
			kw.Error = "did not validate against any subschema of anyOf"
			se.Valid = false
		}
	}
	if schema.OneOf != nil {
		kw := add(&KeywordEvaluation{Keyword: "oneOf"})
		nValid := 0
		for _, ss := range schema.OneOf {
			child, cann, err := evalChild(ss)
			if err != nil {
				return nil, nil, err
			}
			kw.Children = append(kw.Children, child)
			if child.Valid {
				nValid++
				ann.merge(cann)
			}
		}
		kw.Valid = nValid == 1
		if !kw.Valid {
			kw.Error = fmt.Sprintf("validated against %d subschemas of oneOf, want exactly 1", nValid)
			se.Valid = false
		}
	}
	if schema.Not != nil {
		child, _, err := evalChild(schema.Not)
		if err != nil {
			return nil, nil, err
		}
		kw := add(&KeywordEvaluation{Keyword: "not", Valid: !child.Valid, Children: []*SchemaEvaluation{child}})
		if child.Valid {
			kw.Error = "validated against the subschema of not"
			se.Valid = false
		}
	}
	if schema.If != nil {
		ifChild, ifAnn, err := evalChild(schema.If)
		if err != nil {
			return nil, nil, err
		}
		kw := ok("if")
		kw.Children = append(kw.Children, ifChild)
		var branch *Schema
		if ifChild.Valid {
			ann.merge(ifAnn)
			branch = schema.Then
		} else {
			branch = schema.Else
		}
		if branch != nil {
			name := "then"
			if branch == schema.Else {
				name = "else"
			}
			bChild, bAnn, err := evalChild(branch)
			if err != nil {
				return nil, nil, err
			}
			bkw := add(&KeywordEvaluation{Keyword: name, Valid: bChild.Valid, Children: []*SchemaEvaluation{bChild}})
			if bChild.Valid {
				ann.merge(bAnn)
			} else {
				bkw.Error = fmt.Sprintf("did not validate against %s", name)
				se.Valid = false
			}
		}
	}

	// arrays
	if instance.Kind() == reflect.Array || instance.Kind() == reflect.Slice {
		if err := e.evalArray(instance, schema, instPath, se, &ann, ok, fail, add, evalChild); err != nil {
			return nil, nil, err
		}
	}

	// objects
	if instance.Kind() == reflect.Map {
		if err := e.evalObject(instance, schema, instPath, se, &ann, ok, fail, add); err != nil {
			return nil, nil, err
		}
	}

	// content, format, metadata annotations
	if schema.ContentEncoding != "" {
		ok2(add, &ann, "contentEncoding", schema.ContentEncoding)
	}
	if schema.ContentMediaType != "" {
		ok2(add, &ann, "contentMediaType", schema.ContentMediaType)
	}
	if schema.ContentSchema != nil {
		// contentSchema describes the structure of the decoded content
		// named by contentMediaType; it is never applied to the instance
		// itself (the instance is usually still an encoded string), so it
		// only ever contributes an annotation, never a pass/fail verdict.
		ok2(add, &ann, "contentSchema", schema.ContentSchema)
	}
	if schema.Format != "" {
		e.evalFormat(instance, schema, &ann, add, ok, fail)
	}
	if schema.Default != nil {
		v, err := decodeJSON(schema.Default)
		if err == nil {
			ok2(add, &ann, "default", v)
		}
	}

	// custom keywords: dispatched through the registry for schema object
	// members with no corresponding Schema field, e.g. keywords belonging
	// to a vocabulary registered at runtime via Registry.Register.
	for _, name := range sortedExtraKeys(schema.Extra) {
		switch e.opts.customKeywordPolicy() {
		case IgnoreCustomKeywords:
			continue
		default:
			raw := schema.Extra[name]
			if d, found := e.registry.Lookup(name); found && d.Eval != nil && d.appliesTo(e.draft) {
				kw := d.Eval(e, raw, instanceOrNil(instance), schema.path, instPath)
				if kw != nil {
					add(kw)
				}
				continue
			}
			// No registered evaluator: fall back to annotating the raw
			// value, the specification's default treatment of keywords a
			// schema reader doesn't recognize.
			var v any
			if err := jsonUnmarshalExtra(raw, &v); err == nil {
				ok2(add, &ann, name, v)
			}
		}
	}

	// The per-keyword Valid fields are authoritative; recompute se.Valid
	// from them rather than trust incremental updates made while keywords
	// like anyOf/oneOf were still collecting Children.
	se.Valid = true
	for _, kw := range se.Keywords {
		if !kw.Valid {
			se.Valid = false
			break
		}
	}

	return se, &ann, nil
}

// ok2 records a plain annotation value: both in ann, for sibling keywords
// like unevaluatedProperties that consult annotations directly, and as a
// KeywordEvaluation with HasAnnotation set, so [EvaluationResults.Output]
// can surface it under Basic/Verbose.
func ok2(add func(*KeywordEvaluation) *KeywordEvaluation, ann *annotations, keyword string, value any) {
	ann.note(keyword, value)
	add(&KeywordEvaluation{Keyword: keyword, Valid: true, HasAnnotation: true, Annotation: value})
}

// sortedExtraKeys returns extra's keys in a fixed order, so custom-keyword
// evaluation (and the Children it may produce) is deterministic.
func sortedExtraKeys(extra map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// instanceOrNil returns instance's underlying Go value, or nil if
// instance represents a JSON null or is otherwise not addressable.
func instanceOrNil(instance reflect.Value) any {
	if !instance.IsValid() {
		return nil
	}
	return instance.Interface()
}

// jsonUnmarshalExtra decodes raw the same way the rest of the engine
// decodes instances: numbers as json.Number, so a custom keyword's
// annotated raw value survives round-tripping exactly.
func jsonUnmarshalExtra(raw json.RawMessage, v *any) error {
	dv, err := decodeJSON(raw)
	if err != nil {
		return err
	}
	*v = dv
	return nil
}

func instanceSummary(v reflect.Value) string {
	if !v.IsValid() {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

// evaluateRef evaluates instance against target (the resolution of a $ref/
// $dynamicRef/$recursiveRef), enforcing Options.MaxRefDepth.
func (e *evalState) evaluateRef(instance reflect.Value, target *Schema, instPath Pointer) (*SchemaEvaluation, *annotations, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.opts.maxRefDepth() {
		return nil, nil, resolutionErrorf(RecursionLimitExceeded, target.String(),
			"exceeded max ref depth %d", e.opts.maxRefDepth())
	}
	return e.evaluate(instance, target, instPath)
}

// resolveDynamic returns the schema a $dynamicRef/$recursiveRef resolves
// to, consulting the dynamic scope stack when the reference's anchor
// resolves dynamically rather than lexically.
func (e *evalState) resolveDynamic(schema *Schema) (*Schema, error) {
	assert((schema.resolvedDynamicRef == nil) != (schema.dynamicRefAnchor == ""),
		"dynamic ref not resolved properly")
	if r := schema.resolvedDynamicRef; r != nil {
		return r, nil
	}
	// Look for the base of the outermost schema on the stack with this
	// dynamic anchor. Outermost, not innermost: the opposite of how
	// ordinary dynamic variables behave. The base is searched (not the
	// schema itself) because the base is the scope anchors live in.
	for _, s := range e.stack {
		if s.base == nil {
			continue
		}
		if info, found := s.base.anchors[schema.dynamicRefAnchor]; found && info.dynamic {
			return info.schema, nil
		}
	}
	return nil, fmt.Errorf("missing dynamic anchor %q", schema.dynamicRefAnchor)
}

func (e *evalState) evalArray(
	instance reflect.Value, schema *Schema, instPath Pointer,
	se *SchemaEvaluation, ann *annotations,
	ok, fail func(string, ...any) *KeywordEvaluation,
	add func(*KeywordEvaluation) *KeywordEvaluation,
	_ func(*Schema) (*SchemaEvaluation, *annotations, error),
) error {
	n := instance.Len()

	prefix := schema.PrefixItems
	if prefix == nil {
		prefix = schema.ItemsArray // legacy array form of "items"
	}
	if prefix != nil {
		kw := add(&KeywordEvaluation{Keyword: "prefixItems", Valid: true})
		allOK := true
		for i, ischema := range prefix {
			if i >= n {
				break
			}
			child, _, err := e.evaluate(instance.Index(i), ischema, instPath.Append(i))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every prefix item was valid"
		}
		ann.noteEndIndex(min(len(prefix), n))
	}

	if schema.Items != nil && schema.ItemsArray == nil {
		kw := add(&KeywordEvaluation{Keyword: "items", Valid: true})
		start := len(schema.PrefixItems)
		allOK := true
		for i := start; i < n; i++ {
			child, _, err := e.evaluate(instance.Index(i), schema.Items, instPath.Append(i))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every item was valid"
		}
		ann.allItems = true
	} else if schema.ItemsArray != nil && schema.AdditionalItems != nil {
		// draft 6/7/2019-09 legacy form: additionalItems covers what the
		// array form of "items" didn't.
		kw := add(&KeywordEvaluation{Keyword: "additionalItems", Valid: true})
		start := len(schema.ItemsArray)
		allOK := true
		for i := start; i < n; i++ {
			child, _, err := e.evaluate(instance.Index(i), schema.AdditionalItems, instPath.Append(i))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every additional item was valid"
		}
		ann.allItems = true
	}

	nContains := 0
	if schema.Contains != nil {
		kw := add(&KeywordEvaluation{Keyword: "contains"})
		for i := range n {
			child, _, err := e.evaluate(instance.Index(i), schema.Contains, instPath.Append(i))
			if err != nil {
				return err
			}
			if child.Valid {
				nContains++
				// Before 2020-12, an index "contains" matched counted as
				// evaluated for unevaluatedItems. 2020-12 removed that
				// exclusion; unevaluatedItems must still check them there.
				if e.draft < Draft2020_12 {
					ann.noteIndex(i)
				}
				kw.Children = append(kw.Children, child)
			}
		}
		min1 := 1
		if schema.MinContains != nil {
			min1 = *schema.MinContains
		}
		kw.Valid = nContains > 0 || min1 == 0
		if !kw.Valid {
			kw.Error = fmt.Sprintf("no item matches %s", schema.Contains)
		}
	}
	if schema.MinContains != nil && schema.Contains != nil {
		if m := *schema.MinContains; nContains < m {
			fail("minContains", "contains matched %d items, fewer than %d", nContains, m)
		} else {
			ok("minContains")
		}
	}
	if schema.MaxContains != nil && schema.Contains != nil {
		if m := *schema.MaxContains; nContains > m {
			fail("maxContains", "contains matched %d items, more than %d", nContains, m)
		} else {
			ok("maxContains")
		}
	}
	if schema.MinItems != nil {
		if m := *schema.MinItems; n < m {
			fail("minItems", "array length %d is less than %d", n, m)
		} else {
			ok("minItems")
		}
	}
	if schema.MaxItems != nil {
		if m := *schema.MaxItems; n > m {
			fail("maxItems", "array length %d is greater than %d", n, m)
		} else {
			ok("maxItems")
		}
	}
	if schema.UniqueItems {
		if dupI, dupJ, has := findDuplicate(instance); has {
			fail("uniqueItems", "items %d and %d are equal", dupJ, dupI)
		} else {
			ok("uniqueItems")
		}
	}

	if schema.UnevaluatedItems != nil && !ann.allItems {
		kw := add(&KeywordEvaluation{Keyword: "unevaluatedItems", Valid: true})
		allOK := true
		for i := ann.endIndex; i < n; i++ {
			if ann.evaluatedIndexes[i] {
				continue
			}
			child, _, err := e.evaluate(instance.Index(i), schema.UnevaluatedItems, instPath.Append(i))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every unevaluated item was valid"
		}
		ann.allItems = true
	}
	return nil
}

// findDuplicate reports the first pair of equal items in instance: hash
// each item, then compare only items whose hashes collide.
func findDuplicate(instance reflect.Value) (i, j int, found bool) {
	n := instance.Len()
	if n <= 1 {
		return 0, 0, false
	}
	hashes := map[uint64][]int{}
	seed := maphash.MakeSeed()
	for idx := range n {
		item := instance.Index(idx)
		var h maphash.Hash
		h.SetSeed(seed)
		hashValue(&h, item)
		hv := h.Sum64()
		for _, prior := range hashes[hv] {
			if equalValue(item, instance.Index(prior)) {
				return idx, prior, true
			}
		}
		hashes[hv] = append(hashes[hv], idx)
	}
	return 0, 0, false
}

func (e *evalState) evalObject(
	instance reflect.Value, schema *Schema, instPath Pointer,
	se *SchemaEvaluation, ann *annotations,
	ok, fail func(string, ...any) *KeywordEvaluation,
	add func(*KeywordEvaluation) *KeywordEvaluation,
) error {
	if kt := instance.Type().Key(); kt.Kind() != reflect.String {
		return fmt.Errorf("jsonschema: map key type %s is not a string", kt)
	}

	evalProps := map[string]bool{} // evaluated by this schema alone, for additionalProperties

	if schema.Properties != nil {
		kw := add(&KeywordEvaluation{Keyword: "properties", Valid: true})
		allOK := true
		for _, prop := range sortedMapKeys(instance) {
			subschema, has := schema.Properties[prop]
			if !has {
				continue
			}
			val := instance.MapIndex(reflect.ValueOf(prop))
			child, _, err := e.evaluate(val, subschema, instPath.Append(prop))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			evalProps[prop] = true
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every property was valid"
			se.Valid = false
		}
	}
	if len(schema.PatternProperties) > 0 {
		kw := add(&KeywordEvaluation{Keyword: "patternProperties", Valid: true})
		allOK := true
		for _, prop := range sortedMapKeys(instance) {
			val := instance.MapIndex(reflect.ValueOf(prop))
			for re, subschema := range schema.patternProperties {
				if !re.MatchString(prop) {
					continue
				}
				child, _, err := e.evaluate(val, subschema, instPath.Append(prop))
				if err != nil {
					return err
				}
				kw.Children = append(kw.Children, child)
				evalProps[prop] = true
				if !child.Valid {
					allOK = false
				}
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every pattern-matched property was valid"
			se.Valid = false
		}
	}
	if schema.AdditionalProperties != nil {
		kw := add(&KeywordEvaluation{Keyword: "additionalProperties", Valid: true})
		allOK := true
		for _, prop := range sortedMapKeys(instance) {
			if evalProps[prop] {
				continue
			}
			val := instance.MapIndex(reflect.ValueOf(prop))
			child, _, err := e.evaluate(val, schema.AdditionalProperties, instPath.Append(prop))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			evalProps[prop] = true
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every additional property was valid"
			se.Valid = false
		}
	}
	ann.noteProperties(evalProps)

	if schema.PropertyNames != nil {
		kw := add(&KeywordEvaluation{Keyword: "propertyNames", Valid: true})
		allOK := true
		for _, prop := range sortedMapKeys(instance) {
			child, _, err := e.evaluate(reflect.ValueOf(prop), schema.PropertyNames, instPath.Append(prop))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every property name was valid"
			se.Valid = false
		}
	}

	nProps := instance.Len()
	if schema.MinProperties != nil {
		if m := *schema.MinProperties; nProps < m {
			fail("minProperties", "object has %d properties, fewer than %d", nProps, m)
		} else {
			ok("minProperties")
		}
	}
	if schema.MaxProperties != nil {
		if m := *schema.MaxProperties; nProps > m {
			fail("maxProperties", "object has %d properties, more than %d", nProps, m)
		} else {
			ok("maxProperties")
		}
	}

	hasProperty := func(prop string) bool {
		return instance.MapIndex(reflect.ValueOf(prop)).IsValid()
	}
	missingProperties := func(props []string) []string {
		var missing []string
		for _, p := range props {
			if !hasProperty(p) {
				missing = append(missing, p)
			}
		}
		return missing
	}
	if schema.Required != nil {
		if m := missingProperties(schema.Required); len(m) > 0 {
			fail("required", "missing properties: %q", m)
		} else {
			ok("required")
		}
	}
	if schema.DependentRequired != nil {
		kw := add(&KeywordEvaluation{Keyword: "dependentRequired", Valid: true})
		for dprop, reqs := range schema.DependentRequired {
			if !hasProperty(dprop) {
				continue
			}
			if m := missingProperties(reqs); len(m) > 0 {
				kw.Valid = false
				kw.Error = fmt.Sprintf("dependentRequired[%q]: missing properties %q", dprop, m)
			}
		}
		if !kw.Valid {
			se.Valid = false
		}
	}
	if schema.DependentSchemas != nil {
		kw := add(&KeywordEvaluation{Keyword: "dependentSchemas", Valid: true})
		allOK := true
		for dprop, ss := range schema.DependentSchemas {
			if !hasProperty(dprop) {
				continue
			}
			child, cann, err := e.evaluate(instance, ss, instPath)
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if child.Valid {
				ann.merge(cann)
			} else {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every dependent schema was valid"
			se.Valid = false
		}
	}
	if schema.UnevaluatedProperties != nil && !ann.allProperties {
		kw := add(&KeywordEvaluation{Keyword: "unevaluatedProperties", Valid: true})
		allOK := true
		for _, prop := range sortedMapKeys(instance) {
			if ann.evaluatedProperties[prop] {
				continue
			}
			val := instance.MapIndex(reflect.ValueOf(prop))
			child, _, err := e.evaluate(val, schema.UnevaluatedProperties, instPath.Append(prop))
			if err != nil {
				return err
			}
			kw.Children = append(kw.Children, child)
			if !child.Valid {
				allOK = false
			}
		}
		kw.Valid = allOK
		if !allOK {
			kw.Error = "not every unevaluated property was valid"
			se.Valid = false
		}
		ann.allProperties = true
	}
	return nil
}

func sortedMapKeys(m reflect.Value) []string {
	keys := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)
	return keys
}

// evalFormat records "format" as an annotation, and as an assertion too
// when Options.RequireFormatValidation is set and a checker is registered
// for it. When format is assertion-checked, the ok/fail KeywordEvaluation
// it produces carries the annotation itself; otherwise ok2 emits a
// dedicated annotation-only one.
func (e *evalState) evalFormat(instance reflect.Value, schema *Schema, ann *annotations, add func(*KeywordEvaluation) *KeywordEvaluation, ok, fail func(string, ...any) *KeywordEvaluation) {
	if e.opts == nil || !e.opts.RequireFormatValidation || e.opts.FormatCheckers == nil {
		ok2(add, ann, "format", schema.Format)
		return
	}
	checker, has := e.opts.FormatCheckers[schema.Format]
	if !has {
		ok2(add, ann, "format", schema.Format)
		return
	}
	ann.note("format", schema.Format)
	var kw *KeywordEvaluation
	if !instance.IsValid() {
		kw = ok("format")
	} else if err := checker.CheckFormat(instance.Interface()); err != nil {
		kw = fail("format", "%q: %v", schema.Format, err)
	} else {
		kw = ok("format")
	}
	kw.HasAnnotation = true
	kw.Annotation = schema.Format
}

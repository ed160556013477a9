// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"slices"
)

// A Draft identifies a revision of the JSON Schema specification.
type Draft int

const (
	// Unspecified means the draft should be inferred from a root schema's
	// "$schema" keyword, falling back to Draft2020_12.
	Unspecified Draft = iota
	Draft6
	Draft7
	Draft2019_09
	Draft2020_12
	DraftNext
)

func (d Draft) String() string {
	switch d {
	case Draft6:
		return "draft6"
	case Draft7:
		return "draft7"
	case Draft2019_09:
		return "2019-09"
	case Draft2020_12:
		return "2020-12"
	case DraftNext:
		return "next"
	default:
		return "unspecified"
	}
}

// draftSchemaURIs maps a "$schema" value to the Draft it selects.
var draftSchemaURIs = map[string]Draft{
	"http://json-schema.org/draft-06/schema#":      Draft6,
	"https://json-schema.org/draft-06/schema#":     Draft6,
	"http://json-schema.org/draft-07/schema#":      Draft7,
	"https://json-schema.org/draft-07/schema#":     Draft7,
	"https://json-schema.org/draft/2019-09/schema": Draft2019_09,
	"https://json-schema.org/draft/2020-12/schema": Draft2020_12,
	"https://json-schema.org/draft/next/schema":    DraftNext,
}

// inferDraft returns the Draft selected by a root schema's "$schema"
// keyword, or Draft2020_12 if s is absent or unrecognized.
func inferDraft(s string) Draft {
	if d, ok := draftSchemaURIs[s]; ok {
		return d
	}
	return Draft2020_12
}

// A Schema is a JSON schema object, spanning the keyword set of drafts 6
// through "next". Not every field is meaningful under every draft, but
// evaluation does not filter fields by draft: every non-zero field takes
// part whatever the active draft. [Schema.Resolve] rejects the array form
// of "items" under 2020-12 and next, and together with "prefixItems" under
// 2019-09, with an [InvalidKeywordForm] error. The drafts recorded in a
// [Registry] are checked only for keywords dispatched to a registered
// [KeywordDescriptor]'s Eval function.
//
// A Schema value may have non-zero values for more than one field: all
// relevant non-zero fields take part in evaluation. There is one
// exception, kept for Go type-safety: Type and Types are mutually
// exclusive, as are Items and ItemsArray.
//
// Since this struct is a Go representation of a JSON value, it inherits
// JSON's distinction between nil and empty. Nil slices and maps are
// considered absent, but empty ones are present and affect evaluation.
// For example, Schema{Enum: nil} is equivalent to an empty schema, so it
// validates every instance, but Schema{Enum: []any{}} requires equality
// to some slice element, so it rejects every instance.
type Schema struct {
	// core
	ID      string             `json:"$id,omitempty"`
	Schema  string             `json:"$schema,omitempty"`
	Ref     string             `json:"$ref,omitempty"`
	Comment string             `json:"$comment,omitempty"`
	Defs    map[string]*Schema `json:"$defs,omitempty"`
	// Definitions is deprecated but still allowed. It is a synonym for $defs.
	Definitions map[string]*Schema `json:"definitions,omitempty"`

	Anchor        string `json:"$anchor,omitempty"`
	DynamicAnchor string `json:"$dynamicAnchor,omitempty"`
	DynamicRef    string `json:"$dynamicRef,omitempty"`
	// RecursiveAnchor and RecursiveRef are the draft 2019-09 predecessors of
	// $dynamicAnchor/$dynamicRef: a boolean anchor at a schema's root, and a
	// ref that resolves against the outermost such anchor still in dynamic
	// scope. The resolver (resolve.go) treats both pairs as the same
	// dynamic-scope mechanism, so they share its resolvedDynamicRef /
	// dynamicRefAnchor bookkeeping.
	RecursiveAnchor bool            `json:"$recursiveAnchor,omitempty"`
	RecursiveRef    string          `json:"$recursiveRef,omitempty"`
	Vocabulary      map[string]bool `json:"$vocabulary,omitempty"`

	// metadata
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
	Deprecated  bool            `json:"deprecated,omitempty"`
	ReadOnly    bool            `json:"readOnly,omitempty"`
	WriteOnly   bool            `json:"writeOnly,omitempty"`
	Examples    []any           `json:"examples,omitempty"`

	// validation
	// Use Type for a single type, or Types for multiple types; never both.
	Type  string   `json:"-"`
	Types []string `json:"-"`
	Enum  []any    `json:"enum,omitempty"`
	// Const is *any because a JSON null (Go nil) is a valid value.
	Const            *any     `json:"const,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MinLength        *int     `json:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`

	// arrays
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	// Items is the 2019-09+ single-schema form of "items": it applies to
	// every item not already covered by PrefixItems. ItemsArray is the
	// draft 6/7/2019-09 legacy array form, under which "items" itself
	// behaves the way PrefixItems does. UnmarshalJSON decides which one to
	// populate from the shape of the JSON value; a schema never has both.
	Items            *Schema   `json:"-"`
	ItemsArray       []*Schema `json:"-"`
	MinItems         *int      `json:"minItems,omitempty"`
	MaxItems         *int      `json:"maxItems,omitempty"`
	AdditionalItems  *Schema   `json:"additionalItems,omitempty"`
	UniqueItems      bool      `json:"uniqueItems,omitempty"`
	Contains         *Schema   `json:"contains,omitempty"`
	MinContains      *int      `json:"minContains,omitempty"` // *int, not int: default is 1, not 0
	MaxContains      *int      `json:"maxContains,omitempty"`
	UnevaluatedItems *Schema   `json:"unevaluatedItems,omitempty"`

	// objects
	MinProperties         *int                `json:"minProperties,omitempty"`
	MaxProperties         *int                `json:"maxProperties,omitempty"`
	Required              []string            `json:"required,omitempty"`
	DependentRequired     map[string][]string `json:"dependentRequired,omitempty"`
	Properties            map[string]*Schema  `json:"properties,omitempty"`
	PatternProperties     map[string]*Schema  `json:"patternProperties,omitempty"`
	AdditionalProperties  *Schema             `json:"additionalProperties,omitempty"`
	PropertyNames         *Schema             `json:"propertyNames,omitempty"`
	UnevaluatedProperties *Schema             `json:"unevaluatedProperties,omitempty"`

	// logic
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	// conditional
	If               *Schema            `json:"if,omitempty"`
	Then             *Schema            `json:"then,omitempty"`
	Else             *Schema            `json:"else,omitempty"`
	DependentSchemas map[string]*Schema `json:"dependentSchemas,omitempty"`

	// other
	// https://json-schema.org/draft/2020-12/draft-bhutton-json-schema-validation-00#rfc.section.8
	// These are annotation-only keywords: they are recorded but never
	// asserted, per spec.
	ContentEncoding  string  `json:"contentEncoding,omitempty"`
	ContentMediaType string  `json:"contentMediaType,omitempty"`
	ContentSchema    *Schema `json:"contentSchema,omitempty"`

	// https://json-schema.org/draft/2020-12/draft-bhutton-json-schema-validation-00#rfc.section.7
	Format string `json:"format,omitempty"`

	// Extra holds object members this struct has no field for: either
	// genuinely unknown keywords, or keywords belonging to a vocabulary
	// registered at runtime via Registry.Register. Compile fails for an
	// entry the active Registry has no descriptor for when
	// Options.ProcessCustomKeywords is ErrorOnCustomKeywords; otherwise the
	// driver decides, per instance, whether an entry is evaluated by a
	// registered descriptor's Eval, recorded as a plain annotation, or
	// ignored.
	Extra map[string]json.RawMessage `json:"-"`

	// computed fields, set by resolve.go

	// This schema's base schema.
	// If the schema is the root or has an ID, its base is itself.
	// Otherwise, its base is the innermost enclosing schema whose base
	// is itself.
	// Intuitively, a base schema is one that can be referred to with a
	// fragmentless URI.
	base *Schema

	// The URI for the schema, if it is the root or has an ID.
	// Otherwise nil.
	// Invariants:
	//   s.base.uri != nil.
	//   s.base == s <=> s.uri != nil
	uri *url.URL

	// The JSON Pointer path from the root schema to here. Used in errors
	// and in evaluation-path/keywordLocation output fields.
	path Pointer

	// draft is inherited from the root schema at resolve time.
	draft Draft

	// The schema to which Ref refers.
	resolvedRef *Schema

	// If the schema has a dynamic ref ($dynamicRef or $recursiveRef), exactly
	// one of the next two fields will be non-zero after successful
	// resolution.
	// The schema to which the dynamic ref refers when it acts lexically.
	resolvedDynamicRef *Schema
	// The anchor to look up on the dynamic-scope stack when the dynamic ref
	// acts dynamically.
	dynamicRefAnchor string

	// Map from anchors to subschemas.
	anchors map[string]anchorInfo

	// compiled regexps
	pattern           *regexp.Regexp
	patternProperties map[*regexp.Regexp]*Schema

	// the set of required properties
	isRequired map[string]bool
}

// falseSchema returns a new Schema tree that fails to validate any value.
func falseSchema() *Schema {
	return &Schema{Not: &Schema{}}
}

// anchorInfo records the subschema to which an anchor refers, and whether
// the anchor keyword is static ($anchor) or dynamic ($dynamicAnchor /
// $recursiveAnchor).
type anchorInfo struct {
	schema  *Schema
	dynamic bool
}

// String returns a short description of the schema, for use in error
// messages.
func (s *Schema) String() string {
	if s.uri != nil {
		if u := s.uri.String(); u != "" {
			return u
		}
	}
	if a := cmp.Or(s.Anchor, s.DynamicAnchor); a != "" && s.base != nil && s.base.uri != nil {
		return fmt.Sprintf("%q, anchor %s", s.base.uri.String(), a)
	}
	if !s.path.IsRoot() {
		return s.path.String()
	}
	return "<anonymous schema>"
}

// ResolvedRef returns the Schema to which this schema's $ref keyword
// refers, or nil if it doesn't have a $ref.
// It returns nil if this schema has not been resolved, meaning that
// [Schema.Resolve] was not called on it or one of its ancestors.
func (s *Schema) ResolvedRef() *Schema {
	return s.resolvedRef
}

func (s *Schema) basicChecks() error {
	if s.Type != "" && s.Types != nil {
		return errors.New("both Type and Types are set; at most one should be")
	}
	if s.Defs != nil && s.Definitions != nil {
		return errors.New("both Defs and Definitions are set; at most one should be")
	}
	if s.Items != nil && s.ItemsArray != nil {
		return errors.New("both Items and ItemsArray are set; at most one should be")
	}
	return nil
}

func (s *Schema) json() string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf("<jsonschema.Schema: %v>", err)
	}
	return string(data)
}

type schemaWithoutMethods Schema // doesn't implement json.{Unm,M}arshaler

func (s *Schema) MarshalJSON() ([]byte, error) {
	if err := s.basicChecks(); err != nil {
		return nil, err
	}
	// Marshal either Type or Types as "type".
	var typ any
	switch {
	case s.Type != "":
		typ = s.Type
	case s.Types != nil:
		typ = s.Types
	}
	// Marshal either Items or ItemsArray as "items".
	var items any
	switch {
	case s.Items != nil:
		items = s.Items
	case s.ItemsArray != nil:
		items = s.ItemsArray
	}
	ms := struct {
		Type  any `json:"type,omitempty"`
		Items any `json:"items,omitempty"`
		*schemaWithoutMethods
	}{
		Type:                 typ,
		Items:                items,
		schemaWithoutMethods: (*schemaWithoutMethods)(s),
	}
	data, err := json.Marshal(ms)
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return data, nil
	}
	return mergeExtra(data, s.Extra)
}

// mergeExtra adds the members of extra to the JSON object in data, skipping
// any member name data already has.
func mergeExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	// A JSON boolean is a valid schema.
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			// true is the empty schema, which validates everything.
			*s = Schema{}
		} else {
			// false is the schema that validates nothing.
			*s = *falseSchema()
		}
		return nil
	}

	ms := struct {
		Type          json.RawMessage `json:"type,omitempty"`
		Const         json.RawMessage `json:"const,omitempty"`
		Items         json.RawMessage `json:"items,omitempty"`
		MinLength     *integer        `json:"minLength,omitempty"`
		MaxLength     *integer        `json:"maxLength,omitempty"`
		MinItems      *integer        `json:"minItems,omitempty"`
		MaxItems      *integer        `json:"maxItems,omitempty"`
		MinProperties *integer        `json:"minProperties,omitempty"`
		MaxProperties *integer        `json:"maxProperties,omitempty"`
		MinContains   *integer        `json:"minContains,omitempty"`
		MaxContains   *integer        `json:"maxContains,omitempty"`

		*schemaWithoutMethods
	}{
		schemaWithoutMethods: (*schemaWithoutMethods)(s),
	}
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	// Unmarshal "type" as either Type or Types.
	var err error
	if len(ms.Type) > 0 {
		switch ms.Type[0] {
		case '"':
			err = json.Unmarshal(ms.Type, &s.Type)
		case '[':
			err = json.Unmarshal(ms.Type, &s.Types)
		default:
			err = fmt.Errorf(`invalid value for "type": %q`, ms.Type)
		}
		if err != nil {
			return err
		}
	}

	// Unmarshal "items" as either Items (an object, 2019-09+) or ItemsArray
	// (an array, the draft 6/7/2019-09 legacy form). Compile is responsible
	// for rejecting the array form under drafts that disallow it, and for
	// rejecting its co-occurrence with prefixItems under 2019-09.
	if len(ms.Items) > 0 {
		switch ms.Items[0] {
		case '[':
			err = json.Unmarshal(ms.Items, &s.ItemsArray)
		default:
			s.Items = new(Schema)
			err = json.Unmarshal(ms.Items, s.Items)
		}
		if err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}

	unmarshalAnyPtr := func(p **any, raw json.RawMessage) error {
		if len(raw) == 0 {
			return nil
		}
		if bytes.Equal(raw, []byte("null")) {
			*p = new(any)
			return nil
		}
		return json.Unmarshal(raw, p)
	}

	// Setting Const to a pointer to null will marshal properly, but won't
	// unmarshal: the *any is set to nil, not a pointer to nil.
	if err := unmarshalAnyPtr(&s.Const, ms.Const); err != nil {
		return err
	}

	set := func(dst **int, src *integer) {
		if src != nil {
			*dst = Ptr(int(*src))
		}
	}

	set(&s.MinLength, ms.MinLength)
	set(&s.MaxLength, ms.MaxLength)
	set(&s.MinItems, ms.MinItems)
	set(&s.MaxItems, ms.MaxItems)
	set(&s.MinProperties, ms.MinProperties)
	set(&s.MaxProperties, ms.MaxProperties)
	set(&s.MinContains, ms.MinContains)
	set(&s.MaxContains, ms.MaxContains)

	// Record any object member with no corresponding struct field as Extra,
	// so strict mode and registered third-party vocabularies can see it.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for name := range raw {
		if _, ok := schemaFieldMap[name]; ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]json.RawMessage{}
		}
		s.Extra[name] = raw[name]
	}
	return nil
}

type integer int32 // for the integer-valued fields of Schema

func (ip *integer) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		// nothing to do
		return nil
	}
	// If there is a decimal point, src is a floating-point number.
	var i int64
	if bytes.ContainsRune(data, '.') {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return errors.New("not a number")
		}
		i = int64(f)
		if float64(i) != f {
			return errors.New("not an integer value")
		}
	} else {
		if err := json.Unmarshal(data, &i); err != nil {
			return errors.New("cannot be unmarshaled into an int")
		}
	}
	// Ensure behavior is the same on both 32-bit and 64-bit systems.
	if i < math.MinInt32 || i > math.MaxInt32 {
		return errors.New("integer is out of range")
	}
	*ip = integer(i)
	return nil
}

// Ptr returns a pointer to a new variable whose value is x.
func Ptr[T any](x T) *T { return &x }

// every applies f preorder to every schema under s including s.
// It stops as soon as f returns false.
func (s *Schema) every(f func(*Schema) bool) bool {
	return f(s) && s.everyChild(func(s *Schema) bool { return s.every(f) })
}

// everyChild reports whether f is true for every immediate child schema of s.
func (s *Schema) everyChild(f func(*Schema) bool) bool {
	v := reflect.ValueOf(s)
	for _, info := range schemaFieldInfos {
		fv := v.Elem().FieldByIndex(info.sf.Index)
		switch info.sf.Type {
		case schemaType:
			// A field that contains an individual schema. A nil is valid: it
			// just means the field isn't present.
			c := fv.Interface().(*Schema)
			if c != nil && !f(c) {
				return false
			}

		case schemaSliceType:
			slice := fv.Interface().([]*Schema)
			for _, c := range slice {
				if c != nil && !f(c) {
					return false
				}
			}

		case schemaMapType:
			// Sort keys for determinism.
			m := fv.Interface().(map[string]*Schema)
			for _, k := range slices.Sorted(maps.Keys(m)) {
				if c := m[k]; c != nil && !f(c) {
					return false
				}
			}
		}
	}
	return true
}

// all wraps every in an iterator.
func (s *Schema) all() iter.Seq[*Schema] {
	return func(yield func(*Schema) bool) { s.every(yield) }
}

// children wraps everyChild in an iterator.
func (s *Schema) children() iter.Seq[*Schema] {
	return func(yield func(*Schema) bool) { s.everyChild(yield) }
}

var (
	schemaType      = reflect.TypeFor[*Schema]()
	schemaSliceType = reflect.TypeFor[[]*Schema]()
	schemaMapType   = reflect.TypeFor[map[string]*Schema]()
)

type structFieldInfo struct {
	sf       reflect.StructField
	jsonName string
}

var (
	// the visible fields of Schema that have a JSON name, sorted by that name
	schemaFieldInfos []structFieldInfo
	// map from JSON name to field
	schemaFieldMap = map[string]reflect.StructField{}
)

func init() {
	for _, sf := range reflect.VisibleFields(reflect.TypeFor[Schema]()) {
		name, ok := fieldJSONName(sf)
		if !ok {
			continue
		}
		schemaFieldInfos = append(schemaFieldInfos, structFieldInfo{sf, name})
	}
	// Items and Type are marshaled under custom names by MarshalJSON above
	// but are tagged json:"-", so their JSON names aren't picked up by the
	// loop; add them by hand so everyChild can find Items and Extra-detection
	// doesn't treat "items"/"type" as unknown keywords.
	schemaFieldInfos = append(schemaFieldInfos,
		structFieldInfo{mustField("Items"), "items"},
		structFieldInfo{mustField("Type"), "type"},
	)
	slices.SortFunc(schemaFieldInfos, func(i1, i2 structFieldInfo) int {
		return cmp.Compare(i1.jsonName, i2.jsonName)
	})
	for _, info := range schemaFieldInfos {
		schemaFieldMap[info.jsonName] = info.sf
	}
}

func mustField(name string) reflect.StructField {
	sf, ok := reflect.TypeFor[Schema]().FieldByName(name)
	if !ok {
		panic("jsonschema: no such field " + name)
	}
	return sf
}

// fieldJSONName reports the JSON name that encoding/json would use for sf,
// and whether sf is included in JSON at all. This reimplements the part of
// encoding/json's tag parsing this package needs, since that logic isn't
// exported.
func fieldJSONName(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() {
		return "", false
	}
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name, true
	}
	name, _, _ := cutTag(tag)
	if tag == "-" {
		return "", false
	}
	if name == "" {
		return sf.Name, true
	}
	return name, true
}

func cutTag(tag string) (name, rest string, found bool) {
	i := 0
	for i < len(tag) && tag[i] != ',' {
		i++
	}
	if i == len(tag) {
		return tag, "", false
	}
	return tag[:i], tag[i+1:], true
}

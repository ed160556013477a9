// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import "context"

// An OutputFormat selects the shape of an [EvaluationResults] when
// flattened with [EvaluationResults.Output]. The four formats are those
// defined by the JSON Schema specification's output vocabulary.
type OutputFormat int

const (
	// Flag reports only a boolean: whether the instance is valid.
	Flag OutputFormat = iota
	// Basic reports a flat list of every keyword evaluation, valid or not.
	Basic
	// Detailed reports a pruned tree: a node is omitted when it is valid,
	// carries no error, and has nothing left beneath it after pruning.
	Detailed
	// Verbose reports the full evaluation tree, including every annotation.
	Verbose
)

func (f OutputFormat) String() string {
	switch f {
	case Flag:
		return "flag"
	case Basic:
		return "basic"
	case Detailed:
		return "detailed"
	case Verbose:
		return "verbose"
	default:
		return "OutputFormat(?)"
	}
}

// A CustomKeywordPolicy controls how [Compile] treats object members of a
// schema that are neither built-in keywords of the active draft nor
// registered by any vocabulary in the active [Registry].
type CustomKeywordPolicy int

const (
	// AnnotateCustomKeywords records the keyword's raw value as an
	// annotation and otherwise ignores it. This is the default, matching
	// the specification's treatment of unrecognized keywords.
	AnnotateCustomKeywords CustomKeywordPolicy = iota
	// ErrorOnCustomKeywords causes Compile to fail with an UnknownKeyword
	// [SchemaError] if any custom keyword is present.
	ErrorOnCustomKeywords
	// IgnoreCustomKeywords drops the keyword entirely: it is neither
	// evaluated nor recorded as an annotation.
	IgnoreCustomKeywords
)

// A FormatChecker validates instance values against a named "format"
// keyword value, such as "date-time" or "ipv4". The engine ships none of
// its own; format checking is a plugin concern external packages register
// with [Options.FormatCheckers].
type FormatChecker interface {
	// CheckFormat reports an error if value does not conform to the format.
	// value is the decoded instance value (string, float64/json.Number,
	// etc.); most format checkers only examine string-typed values and
	// should return nil for anything else.
	CheckFormat(value any) error
}

// SchemaRegistry resolves a URI that does not correspond to any subschema
// reachable from the schema being compiled, such as a $ref to an external
// document. It returns the root [Schema] of the document identified by
// uri, or an error.
type SchemaRegistry func(uri string) (*Schema, error)

// Options controls [Compile] and [Resolved.Evaluate].
type Options struct {
	// EvaluatingAs selects the draft to evaluate the schema under.
	// Unspecified (the zero value) infers the draft from the root schema's
	// "$schema" keyword, defaulting to Draft2020_12 if absent or
	// unrecognized.
	EvaluatingAs Draft

	// OutputFormat names an output shape. Nothing in this package reads
	// it: [EvaluationResults.Output] takes its format as an argument, and
	// [Resolved.Evaluate] always returns the full [EvaluationResults] tree.
	OutputFormat OutputFormat

	// RequireFormatValidation, when true, makes "format" an assertion
	// instead of a pure annotation, for any format a checker is registered
	// for in FormatCheckers. Formats with no registered checker are always
	// annotation-only, regardless of this setting.
	RequireFormatValidation bool

	// FormatCheckers maps a "format" name to the [FormatChecker] that
	// validates it. A nil or empty map means "format" is always
	// annotation-only.
	FormatCheckers map[string]FormatChecker

	// ProcessCustomKeywords controls how keywords unknown to the active
	// Registry are treated.
	ProcessCustomKeywords CustomKeywordPolicy

	// ValidateAgainstMetaSchema, when true, makes Compile validate the
	// schema document itself against its draft's meta-schema before
	// compiling it. The engine ships no meta-schemas; when true, Compile
	// consults SchemaRegistry to fetch the meta-schema named by the
	// schema's "$schema" keyword, failing compilation if none is found.
	ValidateAgainstMetaSchema bool

	// SchemaRegistry resolves references that escape the schema being
	// compiled. It may be nil, in which case only $ref/$dynamicRef targets
	// reachable from the root schema can be resolved.
	SchemaRegistry SchemaRegistry

	// Registry supplies the keyword vocabulary. A nil Registry means
	// [DefaultRegistry].
	Registry *Registry

	// CancellationToken, if non-nil, is checked periodically during
	// Evaluate; if it is done, Evaluate returns a [Cancelled] error.
	CancellationToken context.Context

	// MaxRefDepth bounds the number of nested $ref/$dynamicRef/
	// $recursiveRef indirections Evaluate will follow before giving up
	// with a RecursionLimitExceeded [ResolutionError]. Zero means the
	// default of 100.
	MaxRefDepth int

	// ShortCircuit is not read by [Resolved.Evaluate]: whatever its value,
	// Evaluate evaluates every keyword and every subschema exhaustively and
	// never stops early at a failing keyword.
	ShortCircuit bool
}

func (o *Options) maxRefDepth() int {
	if o == nil || o.MaxRefDepth <= 0 {
		return 100
	}
	return o.MaxRefDepth
}

func (o *Options) customKeywordPolicy() CustomKeywordPolicy {
	if o == nil {
		return AnnotateCustomKeywords
	}
	return o.ProcessCustomKeywords
}

func (o *Options) registry() *Registry {
	if o == nil || o.Registry == nil {
		return DefaultRegistry
	}
	return o.Registry
}

func (o *Options) draft(root *Schema) Draft {
	want := Unspecified
	if o != nil {
		want = o.EvaluatingAs
	}
	if want != Unspecified {
		return want
	}
	return inferDraft(root.Schema)
}

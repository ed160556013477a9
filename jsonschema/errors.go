// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file defines the error taxonomy: schema errors (raised by Compile),
// resolution errors (raised while resolving $ref/$dynamicRef), and
// infrastructure errors (raised by Evaluate). Keyword assertion failures
// are not Go errors: they are data, reported as invalid nodes of the
// [EvaluationResults] tree.

package jsonschema

import (
	"fmt"

	"github.com/google/uuid"
)

// A SchemaErrorKind classifies a [SchemaError].
type SchemaErrorKind int

const (
	// UnknownKeyword means a schema object contains a keyword that is
	// neither a built-in of the active draft nor registered by any
	// vocabulary, and Options.ProcessCustomKeywords is ErrorOnCustomKeywords.
	UnknownKeyword SchemaErrorKind = iota
	// InvalidKeywordForm means a keyword's value has the wrong shape for
	// the active draft, e.g. array-form "items" co-occurring with
	// "prefixItems" under 2019-09, or array-form "items" under 2020-12.
	InvalidKeywordForm
	// InvalidPattern means "pattern" or a "patternProperties" key failed to
	// compile as a regular expression.
	InvalidPattern
	// InvalidReference means a "$ref", "$dynamicRef", or "$recursiveRef"
	// value is not a syntactically valid URI reference, or an "$id" is
	// non-absolute where an absolute URI is required.
	InvalidReference
	// RegistryCycle means a set of registered [KeywordDescriptor] sibling
	// annotation dependencies forms a cycle, so no valid evaluation order
	// exists.
	RegistryCycle
)

func (k SchemaErrorKind) String() string {
	switch k {
	case UnknownKeyword:
		return "UnknownKeyword"
	case InvalidKeywordForm:
		return "InvalidKeywordForm"
	case InvalidPattern:
		return "InvalidPattern"
	case InvalidReference:
		return "InvalidReference"
	case RegistryCycle:
		return "RegistryCycle"
	default:
		return "SchemaErrorKind(?)"
	}
}

// A SchemaError reports a problem found while compiling a schema.
type SchemaError struct {
	Kind    SchemaErrorKind
	Schema  *Schema // the subschema at fault, if any
	Keyword string  // the keyword at fault, if any
	Msg     string
}

func (e *SchemaError) Error() string {
	loc := "<unknown>"
	if e.Schema != nil {
		loc = e.Schema.String()
	}
	if e.Keyword != "" {
		return fmt.Sprintf("jsonschema: %s: %s: %s: %s", e.Kind, loc, e.Keyword, e.Msg)
	}
	return fmt.Sprintf("jsonschema: %s: %s: %s", e.Kind, loc, e.Msg)
}

func schemaErrorf(kind SchemaErrorKind, s *Schema, keyword, format string, args ...any) *SchemaError {
	return &SchemaError{Kind: kind, Schema: s, Keyword: keyword, Msg: fmt.Sprintf(format, args...)}
}

// A ResolutionErrorKind classifies a [ResolutionError].
type ResolutionErrorKind int

const (
	// SchemaNotFound means a $ref/$dynamicRef/$recursiveRef points to a URI
	// that cannot be resolved within the schema and Options.SchemaRegistry
	// either was not set or could not supply a schema for it.
	SchemaNotFound ResolutionErrorKind = iota
	// RecursionLimitExceeded means following $ref chains exceeded
	// Options.MaxRefDepth.
	RecursionLimitExceeded
)

func (k ResolutionErrorKind) String() string {
	switch k {
	case SchemaNotFound:
		return "SchemaNotFound"
	case RecursionLimitExceeded:
		return "RecursionLimitExceeded"
	default:
		return "ResolutionErrorKind(?)"
	}
}

// A ResolutionError reports a problem resolving a reference.
type ResolutionError struct {
	Kind ResolutionErrorKind
	URI  string
	Msg  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("jsonschema: %s: %s: %s", e.Kind, e.URI, e.Msg)
}

func resolutionErrorf(kind ResolutionErrorKind, uri, format string, args ...any) *ResolutionError {
	return &ResolutionError{Kind: kind, URI: uri, Msg: fmt.Sprintf(format, args...)}
}

// Cancelled is returned by [Resolved.Evaluate] when the context passed as
// Options.CancellationToken is done before evaluation completes.
type Cancelled struct {
	Cause error
}

func (e *Cancelled) Error() string { return fmt.Sprintf("jsonschema: evaluation cancelled: %v", e.Cause) }
func (e *Cancelled) Unwrap() error { return e.Cause }

// An InternalInvariantViolation reports a bug in the engine itself: an
// invariant that Compile or Evaluate assumed always holds did not.
// Programs should treat this the same as a panic recovered into an error;
// it is never the result of a malformed schema or instance.
//
// RunID identifies the particular Evaluate/ValidateDefaults call that hit
// the violation, so that concurrent runs logged by a caller can be told
// apart in a shared log stream.
type InternalInvariantViolation struct {
	Msg   string
	RunID uuid.UUID
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("jsonschema: internal invariant violation (run %s): %s", e.RunID, e.Msg)
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package jsonschema is a JSON Schema evaluation engine supporting drafts
6, 7, 2019-09, 2020-12 and the in-progress next draft.

The engine is split into the phases that make JSON Schema hard to
evaluate correctly: a [Schema.Resolve] (or [Compile], which merges
concurrent identical calls and adds optional meta-schema validation) step that resolves
every $ref/$dynamicRef and checks the schema tree for structural
errors, producing a [Resolved], and a [Resolved.Evaluate] step that
walks the resolved tree against an instance, producing an
[EvaluationResults] tree that can be flattened into any of the four
JSON Schema output formats with [EvaluationResults.Output].

# Basic usage

	rs, err := schema.Resolve("", nil)
	if err != nil {
		// malformed schema
	}
	results, err := rs.Evaluate(instance, nil)
	if err != nil {
		// infrastructure error: cancellation, recursion limit, ...
	}
	if !results.Valid {
		// results.Output(jsonschema.Detailed)
	}

# Keyword registry

The built-in vocabulary keywords (type, properties, allOf, and so on)
are hand-wired into the driver, which evaluates them in a fixed order of
its own (so a keyword like unevaluatedItems can observe the annotations
its siblings produced). The [Registry] records ordering metadata for them,
available through [Registry.Ordered], which the driver does not consult.
Keywords outside the built-in vocabulary — genuinely unknown keywords,
or ones belonging to a third-party vocabulary (for example
OpenAPI-specific keywords) — are the part that is pluggable: register a
[KeywordDescriptor] with a non-nil Eval function in a [Registry], and
the driver dispatches to it instead of recording a plain annotation.
[DefaultRegistry] holds only the built-in keywords and their
draft-specific variants ($recursiveRef, the array form of "items", and
so on).

# Deviations from the specification

Regular expressions are processed with Go's regexp package, which
differs from ECMA-262 in a few respects, most significantly in not
supporting back-references.

The "format" keyword's value is always recorded as an annotation. It is
only treated as an assertion when [Options.RequireFormatValidation] is
set, and even then only if a [FormatChecker] has been registered for
it; this package ships none itself, by design (format checkers are a
pluggable, out-of-core-engine concern).
*/
package jsonschema

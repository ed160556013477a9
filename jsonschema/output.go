// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements Output Formatting: flattening an EvaluationResults
// tree into one of the four standard JSON Schema output shapes (Flag,
// Basic, Detailed, Verbose), as JSON-marshalable values.

package jsonschema

import "fmt"

// A FlagOutput is the result of [EvaluationResults.Output] with [Flag]: it
// reports only whether the instance is valid.
type FlagOutput struct {
	Valid bool `json:"valid"`
}

// An OutputUnit is one node of a [Basic], [Detailed], or [Verbose] output
// document: the outcome of one keyword (Basic, beneath a single top-level
// unit for the whole result) or one schema (Detailed, Verbose; Verbose also
// adds one unit per keyword annotation), expressed in the vocabulary the
// JSON Schema specification uses for validation output.
type OutputUnit struct {
	Valid            bool          `json:"valid"`
	KeywordLocation  string        `json:"keywordLocation"`
	InstanceLocation string        `json:"instanceLocation"`
	Error            string        `json:"error,omitempty"`
	Annotation       any           `json:"annotation,omitempty"`
	Details          []*OutputUnit `json:"details,omitempty"`
}

// Output flattens r into the shape selected by format. The result is
// always JSON-marshalable.
func (r *EvaluationResults) Output(format OutputFormat) any {
	switch format {
	case Flag:
		return &FlagOutput{Valid: r.Valid}
	case Basic:
		units := []*OutputUnit{}
		collectBasic(r.Root, &units)
		return &OutputUnit{
			Valid:            r.Valid,
			KeywordLocation:  r.Root.KeywordLocation.String(),
			InstanceLocation: r.Root.InstanceLocation.String(),
			Details:          units,
		}
	case Detailed:
		return pruneDetailed(schemaToUnit(r.Root, true))
	case Verbose:
		return schemaToUnit(r.Root, false)
	default:
		return &FlagOutput{Valid: r.Valid}
	}
}

// collectBasic appends a flat OutputUnit for every keyword evaluated
// anywhere in se's subtree, in evaluation order, the way [Basic] output
// lists every assertion regardless of nesting.
func collectBasic(se *SchemaEvaluation, out *[]*OutputUnit) {
	if se == nil {
		return
	}
	for _, kw := range se.Keywords {
		u := &OutputUnit{
			Valid:            kw.Valid,
			KeywordLocation:  kw.KeywordLocation.String(),
			InstanceLocation: kw.InstanceLocation.String(),
			Error:            kw.Error,
		}
		if kw.HasAnnotation {
			u.Annotation = kw.Annotation
		}
		*out = append(*out, u)
		for _, child := range kw.Children {
			collectBasic(child, out)
		}
	}
}

// schemaToUnit converts se into an OutputUnit tree mirroring its shape
// exactly: one unit per schema, nested under the keyword that introduced
// it. assertionsOnly suppresses annotation values, since [Detailed] output
// omits them and only [Verbose] carries them.
func schemaToUnit(se *SchemaEvaluation, assertionsOnly bool) *OutputUnit {
	if se == nil {
		return nil
	}
	u := &OutputUnit{
		Valid:            se.Valid,
		KeywordLocation:  se.KeywordLocation.String(),
		InstanceLocation: se.InstanceLocation.String(),
	}
	var failedKeywords []string
	for _, kw := range se.Keywords {
		if !kw.Valid {
			failedKeywords = append(failedKeywords, kw.Keyword)
		}
		for _, child := range kw.Children {
			if cu := schemaToUnit(child, assertionsOnly); cu != nil {
				u.Details = append(u.Details, cu)
			}
		}
		if !assertionsOnly && kw.HasAnnotation {
			u.Details = append(u.Details, &OutputUnit{
				Valid:            true,
				KeywordLocation:  kw.KeywordLocation.String(),
				InstanceLocation: kw.InstanceLocation.String(),
				Annotation:       kw.Annotation,
			})
		}
	}
	if len(failedKeywords) > 0 {
		u.Error = fmt.Sprintf("failed keywords: %v", failedKeywords)
	}
	return u
}

// pruneDetailed removes subtree nodes that add no information: a node is
// dropped iff it is valid, has no annotation, and all its children were
// themselves dropped. This is a property of the node alone, not of its
// parent's verdict — a valid, childless, annotation-free node is just as
// redundant underneath a failing parent as underneath a passing one.
func pruneDetailed(u *OutputUnit) *OutputUnit {
	if u == nil {
		return nil
	}
	var kept []*OutputUnit
	for _, d := range u.Details {
		pd := pruneDetailed(d)
		if pd == nil {
			continue
		}
		if pd.Valid && pd.Error == "" && len(pd.Details) == 0 {
			// Redundant: valid, no annotation, nothing left underneath.
			continue
		}
		kept = append(kept, pd)
	}
	u.Details = kept
	return u
}

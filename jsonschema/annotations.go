// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements annotation tracking: the bookkeeping the driver
// needs so that unevaluatedItems/unevaluatedProperties can see what their
// sibling and child keywords evaluated, together with the plain annotation
// values keywords recorded along the way.

package jsonschema

import "maps"

// annotations tracks what a schema's evaluation has determined so far:
// which array indexes and object properties have been evaluated
// (consulted by unevaluatedItems/unevaluatedProperties), and the raw
// annotation value each keyword recorded with note. [EvaluationResults.Output]
// does not read these values; it reports each KeywordEvaluation's
// Annotation instead.
type annotations struct {
	allItems            bool            // all items were evaluated
	endIndex            int             // 1+largest index evaluated by prefixItems
	evaluatedIndexes    map[int]bool    // set of indexes evaluated by contains
	allProperties       bool            // all properties were evaluated
	evaluatedProperties map[string]bool // set of properties evaluated by various keywords

	// values holds the annotation value each keyword name recorded with
	// note for this schema, for keywords whose annotation is a value rather
	// than just "these indexes/properties were touched" (the driver records
	// format and the plain annotations written by ok2).
	values map[string]any
}

// note records keyword's annotation value.
func (a *annotations) note(keyword string, value any) {
	if a.values == nil {
		a.values = map[string]any{}
	}
	a.values[keyword] = value
}

// noteIndex marks i as evaluated.
func (a *annotations) noteIndex(i int) {
	if a.evaluatedIndexes == nil {
		a.evaluatedIndexes = map[int]bool{}
	}
	a.evaluatedIndexes[i] = true
}

// noteEndIndex marks items with index less than end as evaluated.
func (a *annotations) noteEndIndex(end int) {
	if end > a.endIndex {
		a.endIndex = end
	}
}

// noteProperty marks prop as evaluated.
func (a *annotations) noteProperty(prop string) {
	if a.evaluatedProperties == nil {
		a.evaluatedProperties = map[string]bool{}
	}
	a.evaluatedProperties[prop] = true
}

// noteProperties marks all the properties in props as evaluated.
func (a *annotations) noteProperties(props map[string]bool) {
	a.evaluatedProperties = mergeBoolMap(a.evaluatedProperties, props)
}

// merge adds b's annotations to a. a must not be nil.
func (a *annotations) merge(b *annotations) {
	if b == nil {
		return
	}
	if b.allItems {
		a.allItems = true
	}
	if b.endIndex > a.endIndex {
		a.endIndex = b.endIndex
	}
	a.evaluatedIndexes = mergeBoolMap(a.evaluatedIndexes, b.evaluatedIndexes)
	if b.allProperties {
		a.allProperties = true
	}
	a.evaluatedProperties = mergeBoolMap(a.evaluatedProperties, b.evaluatedProperties)
	for k, v := range b.values {
		a.note(k, v)
	}
}

// mergeBoolMap adds t's keys to s and returns s. If s is nil, it returns a
// copy of t.
func mergeBoolMap[K comparable](s, t map[K]bool) map[K]bool {
	if s == nil {
		return maps.Clone(t)
	}
	maps.Copy(s, t)
	return s
}

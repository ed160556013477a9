// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements Location Pointers: immutable JSON Pointers
// (RFC 6901) used throughout the engine as schema locations, evaluation
// paths, and instance locations.
//
// A JSON Pointer is a path that refers to one JSON value within another.
// If the path is empty, it refers to the root value. Otherwise it is a
// sequence of slash-prefixed segments, like "/points/1/x", selecting
// successive object properties or array indices.

package jsonschema

import (
	"fmt"
	"strconv"
	"strings"
)

// A Pointer is an immutable JSON Pointer: an ordered sequence of segments,
// each either an object key or an array index. The zero Pointer is the
// empty pointer, denoting the document root.
type Pointer struct {
	segs []string // shared; never mutated in place
}

var (
	jsonPointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	jsonPointerUnescaper = strings.NewReplacer("~0", "~", "~1", "/")
)

// ParsePointer parses s as a JSON Pointer.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return Pointer{}, fmt.Errorf("jsonschema: JSON Pointer %q does not begin with '/'", s)
	}
	segs := strings.Split(s[1:], "/")
	if strings.Contains(s, "~") {
		for i := range segs {
			segs[i] = jsonPointerUnescaper.Replace(segs[i])
		}
	}
	return Pointer{segs: segs}, nil
}

// Append returns a new Pointer with seg appended. seg may be a string
// (object key) or an int (array index); any other type panics.
func (p Pointer) Append(seg any) Pointer {
	var s string
	switch v := seg.(type) {
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	default:
		panic(fmt.Sprintf("jsonschema: Pointer.Append: bad segment type %T", seg))
	}
	segs := make([]string, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = s
	return Pointer{segs: segs}
}

// Combine returns a new Pointer consisting of p followed by the segments
// of other.
func (p Pointer) Combine(other Pointer) Pointer {
	if len(other.segs) == 0 {
		return p
	}
	segs := make([]string, len(p.segs)+len(other.segs))
	copy(segs, p.segs)
	copy(segs[len(p.segs):], other.segs)
	return Pointer{segs: segs}
}

// IsRoot reports whether p is the empty (root) pointer.
func (p Pointer) IsRoot() bool { return len(p.segs) == 0 }

// Segments returns the pointer's segments. The caller must not mutate the
// returned slice.
func (p Pointer) Segments() []string { return p.segs }

// String returns the RFC 6901 text form of p, e.g. "/a/0/b~1c".
func (p Pointer) String() string {
	if len(p.segs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(jsonPointerEscaper.Replace(s))
	}
	return b.String()
}

// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the Value Model: classification of Go values that
// represent JSON instances, and the numeric/structural equality rules the
// rest of the engine relies on (enum, const, multipleOf, uniqueItems).

package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/maphash"
	"math"
	"math/big"
	"reflect"
)

// Equal reports whether two Go values representing JSON values are equal
// according to the JSON Schema spec: structural equality, with numbers
// compared by mathematical value rather than by representation.
// See https://json-schema.org/draft/2020-12/json-schema-core#section-4.2.2.
func Equal(x, y any) bool {
	return equalValue(reflect.ValueOf(x), reflect.ValueOf(y))
}

func equalValue(x, y reflect.Value) bool {
	if !x.IsValid() || !y.IsValid() {
		return x.IsValid() == y.IsValid()
	}

	// Numbers compare by mathematical value, regardless of Go representation
	// (int, float64, json.Number all compare equal if they denote the same
	// rational number). This is what lets multipleOf and enum/const work
	// bit-for-bit across decimal literals.
	rx, ok1 := jsonNumber(x)
	ry, ok2 := jsonNumber(y)
	if ok1 || ok2 {
		return ok1 && ok2 && rx.Cmp(ry) == 0
	}
	if x.Kind() != y.Kind() {
		return false
	}
	switch x.Kind() {
	case reflect.Array:
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.Len() {
			if !equalValue(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if x.IsNil() != y.IsNil() {
			return false
		}
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.Len() {
			if !equalValue(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		return equalValue(x.Elem(), y.Elem())
	case reflect.Pointer:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		return equalValue(x.Elem(), y.Elem())
	case reflect.Map:
		if x.IsNil() != y.IsNil() {
			return false
		}
		if x.Len() != y.Len() {
			return false
		}
		iter := x.MapRange()
		for iter.Next() {
			vy := y.MapIndex(iter.Key())
			if !vy.IsValid() || !equalValue(iter.Value(), vy) {
				return false
			}
		}
		return true
	case reflect.String:
		return x.String() == y.String()
	case reflect.Bool:
		return x.Bool() == y.Bool()
	default:
		panic(fmt.Sprintf("jsonschema: unsupported kind in Equal: %s", x.Kind()))
	}
}

// jsonNumber converts a numeric reflect.Value (int, uint, float, or
// json.Number) into an exact rational, so callers can compare decimal
// literals for equality without floating-point error.
func jsonNumber(v reflect.Value) (*big.Rat, bool) {
	r := new(big.Rat)
	switch {
	case !v.IsValid():
		return nil, false
	case v.CanInt():
		r.SetInt64(v.Int())
	case v.CanUint():
		r.SetUint64(v.Uint())
	case v.CanFloat():
		r.SetFloat64(v.Float())
	default:
		jn, ok := v.Interface().(json.Number)
		if !ok {
			return nil, false
		}
		if _, ok := r.SetString(jn.String()); !ok {
			// Can fail for degenerate exponents like "1e9999999999"; the JSON
			// Schema spec puts no bound on a number's magnitude, but we do.
			return nil, false
		}
	}
	return r, true
}

// jsonType classifies v according to the "type" keyword's vocabulary:
// null, boolean, object, array, number, string, or the "integer" refinement
// of number for integer-valued numbers. It returns ("", false) if v does
// not represent a JSON value at all.
func jsonType(v reflect.Value) (string, bool) {
	if !v.IsValid() {
		return "null", true
	}
	if v.CanInt() || v.CanUint() {
		return "integer", true
	}
	if v.CanFloat() {
		if _, f := math.Modf(v.Float()); f == 0 {
			return "integer", true
		}
		return "number", true
	}
	if jn, ok := v.Interface().(json.Number); ok {
		if _, err := jn.Int64(); err == nil {
			return "integer", true
		}
		if f, err := jn.Float64(); err == nil {
			if _, frac := math.Modf(f); frac == 0 {
				return "integer", true
			}
			return "number", true
		}
		return "", false
	}
	switch v.Kind() {
	case reflect.Bool:
		return "boolean", true
	case reflect.String:
		return "string", true
	case reflect.Slice, reflect.Array:
		return "array", true
	case reflect.Map:
		return "object", true
	default:
		return "", false
	}
}

// hashValue feeds a deterministic hash of v into h, consistent with
// equalValue: two values that compare equal always hash equal. Used by the
// uniqueItems keyword as an O(n) pre-filter before falling back to
// pairwise equalValue comparisons on collision.
func hashValue(h *maphash.Hash, v reflect.Value) {
	if !v.IsValid() {
		h.WriteByte(0)
		return
	}
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			h.WriteByte(0)
			return
		}
		v = v.Elem()
	}
	if r, ok := jsonNumber(v); ok {
		h.WriteByte('N')
		h.WriteString(r.RatString())
		return
	}
	switch v.Kind() {
	case reflect.Bool:
		h.WriteByte('B')
		if v.Bool() {
			h.WriteByte(1)
		} else {
			h.WriteByte(0)
		}
	case reflect.String:
		h.WriteByte('S')
		h.WriteString(v.String())
	case reflect.Slice, reflect.Array:
		h.WriteByte('A')
		for i := range v.Len() {
			hashValue(h, v.Index(i))
		}
	case reflect.Map:
		h.WriteByte('O')
		// Order-independent: XOR a per-key sub-hash rather than feed the map
		// in iteration order, which is randomized by Go's map implementation.
		var acc uint64
		iter := v.MapRange()
		seed := h.Seed()
		for iter.Next() {
			var kh maphash.Hash
			kh.SetSeed(seed)
			kh.WriteString(iter.Key().String())
			hashValue(&kh, iter.Value())
			acc ^= kh.Sum64()
		}
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(acc >> (8 * i))
		}
		h.Write(buf[:])
	default:
		panic(fmt.Sprintf("jsonschema: unsupported kind in hashValue: %s", v.Kind()))
	}
}

// decodeJSON unmarshals data using json.Number for numbers, so that large
// or high-precision literals survive round-tripping exactly as the Value
// Model in spec requires.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func assert(cond bool, msg string) {
	if !cond {
		panic("jsonschema: invariant violated: " + msg)
	}
}

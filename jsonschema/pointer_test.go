// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonschema

import "testing"

func TestParsePointer(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"/a/b", []string{"a", "b"}, false},
		{"/a~1b/c~0d", []string{"a/b", "c~d"}, false},
		{"/0/1", []string{"0", "1"}, false},
		{"no-leading-slash", nil, true},
	} {
		p, err := ParsePointer(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePointer(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		got := p.Segments()
		if len(got) != len(tt.want) {
			t.Errorf("ParsePointer(%q).Segments() = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParsePointer(%q).Segments()[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPointerRoundTrip(t *testing.T) {
	for _, s := range []string{"", "/a", "/a/b/0", "/a~1b", "/a~0b"} {
		p, err := ParsePointer(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := p.String(); got != s {
			t.Errorf("round trip of %q: got %q", s, got)
		}
	}
}

func TestPointerAppendCombine(t *testing.T) {
	p := Pointer{}
	p = p.Append("a").Append(0).Append("b")
	if got, want := p.String(), "/a/0/b"; got != want {
		t.Errorf("Append chain: got %q, want %q", got, want)
	}

	base, err := ParsePointer("/x")
	if err != nil {
		t.Fatal(err)
	}
	rest, err := ParsePointer("/y/z")
	if err != nil {
		t.Fatal(err)
	}
	combined := base.Combine(rest)
	if got, want := combined.String(), "/x/y/z"; got != want {
		t.Errorf("Combine: got %q, want %q", got, want)
	}

	// Appending must not mutate the original pointer's segments.
	orig := Pointer{}.Append("a")
	_ = orig.Append("b")
	if got, want := orig.String(), "/a"; got != want {
		t.Errorf("Append mutated receiver: got %q, want %q", got, want)
	}
}

func TestPointerIsRoot(t *testing.T) {
	if !(Pointer{}).IsRoot() {
		t.Error("zero Pointer should be root")
	}
	if (Pointer{}).Append("a").IsRoot() {
		t.Error("non-empty Pointer should not be root")
	}
}

func TestPointerAppendPanicsOnBadType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Append(struct{}{}) did not panic")
		}
	}()
	Pointer{}.Append(struct{}{})
}

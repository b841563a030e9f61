package core

import (
	"strings"
	"testing"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		lower bool
		want  string
	}{
		{name: "trim", in: "  hello \t\n", want: "hello"},
		{name: "trim + lower", in: "  HeLLo ", lower: true, want: "hello"},
		{name: "keeps case by default", in: "HeLLo", want: "HeLLo"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.lower {
				got = CleanString(tt.in, true)
			} else {
				got = CleanString(tt.in)
			}
			if got != tt.want {
				t.Errorf("CleanString() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := RandomCode(8)
		if len(code) != 8 {
			t.Fatalf("RandomCode(8) length = %d", len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("RandomCode() produced %q outside the alphabet", c)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 36^8 space must not collide
	if len(seen) != 100 {
		t.Errorf("RandomCode() produced %d distinct codes out of 100", len(seen))
	}
}

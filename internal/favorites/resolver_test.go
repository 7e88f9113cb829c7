package favorites

import (
	"testing"

	"github.com/starkeep/starkeep/internal/types"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		ref  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"17", 17, true},
		{"-1", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"3.5", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRef(tc.ref)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRef(%q) = (%d, %v), expected (%d, %v)", tc.ref, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	log := []types.Message{
		{Position: 0, Body: "first"},
		{Position: 1, Body: "second"},
	}

	msg, ok := Resolve("1", log)
	if !ok || msg.Body != "second" {
		t.Fatalf("Resolve(1) = (%+v, %v)", msg, ok)
	}
	if _, ok := Resolve("2", log); ok {
		t.Fatal("out-of-range ref should not resolve")
	}
	if _, ok := Resolve("junk", log); ok {
		t.Fatal("unparsable ref should not resolve")
	}
}

package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/phonestock_backend/models"
)

func TestDedupImeiCodes(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"case and whitespace collapse", []string{"A", "a ", "B"}, []string{"A", "B"}},
		{"first-seen spelling wins", []string{" x1", "X1", "x1"}, []string{"x1"}},
		{"blank entries dropped", []string{"", "  ", "C"}, []string{"C"}},
		{"empty input", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.DedupImeiCodes(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestImeiListValueScan(t *testing.T) {
	list := models.ImeiList{"A1", "B2"}
	v, err := list.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.(string) != "A1,B2" {
		t.Fatalf("got %q", v)
	}

	var back models.ImeiList
	if err := back.Scan([]byte("A1,B2")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(back) != 2 || back[0] != "A1" || back[1] != "B2" {
		t.Fatalf("round trip mismatch: %v", back)
	}

	// empty string and NULL both scan to an empty list
	var empty models.ImeiList
	if err := empty.Scan(""); err != nil {
		t.Fatalf("Scan empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %v", empty)
	}
	var null models.ImeiList
	if err := null.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if len(null) != 0 {
		t.Fatalf("expected empty list, got %v", null)
	}
}

func TestImeiListContains(t *testing.T) {
	list := models.ImeiList{"Abc", "DEF"}
	for _, code := range []string{"abc", " ABC ", "def"} {
		if !list.Contains(code) {
			t.Fatalf("expected %q in %v", code, list)
		}
	}
	if list.Contains("ghi") {
		t.Fatalf("did not expect ghi in %v", list)
	}
}

func TestImeiKey(t *testing.T) {
	if models.ImeiKey("  AbC-1 ") != "abc-1" {
		t.Fatalf("got %q", models.ImeiKey("  AbC-1 "))
	}
	if models.NormalizeImeiCode(" AbC ") != "AbC" {
		t.Fatalf("got %q", models.NormalizeImeiCode(" AbC "))
	}
}

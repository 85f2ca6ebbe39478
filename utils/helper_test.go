package utils_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/phonestock_backend/utils"
)

func TestEscapeLikePattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
		{"", ""},
	}
	for _, tc := range cases {
		if got := utils.EscapeLikePattern(tc.in); got != tc.want {
			t.Errorf("EscapeLikePattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

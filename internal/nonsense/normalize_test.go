package nonsense

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "university", "university"},
		{"uppercase folded", "UNIVERSITY", "university"},
		{"mixed case", "UniVerSity", "university"},
		{"digits removed", "abc123def", "abcdef"},
		{"punctuation removed", "uni-ver_sity!", "university"},
		{"spaces removed", "hello world", "helloworld"},
		{"all digits", "1234567890", ""},
		{"all punctuation", "!@#$%^&*()", ""},
		{"empty", "", ""},
		{"unicode letters kept", "Ünïvérsity", "ünïvérsity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

package nonsense

import (
	"reflect"
	"testing"
)

func TestNGrams(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want []string
	}{
		{"basic", "abcde", 3, []string{"abc", "bcd", "cde"}},
		{"exact length", "abcd", 4, []string{"abcd"}},
		{"too short", "abc", 4, nil},
		{"empty", "", 2, nil},
		{"zero n", "abc", 0, nil},
		{"repeats preserved", "aaaa", 2, []string{"aa", "aa", "aa"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NGrams(tc.in, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NGrams(%q, %d) = %v, want %v", tc.in, tc.n, got, tc.want)
			}
		})
	}
}

func TestNGramCounts(t *testing.T) {
	got := NGramCounts("xqjklqjklqjkl", 4)
	want := map[string]int{
		"xqjk": 1,
		"qjkl": 3,
		"jklq": 2,
		"klqj": 2,
		"lqjk": 2,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGramCounts = %v, want %v", got, want)
	}
}

func TestNGramCountsTooShort(t *testing.T) {
	if got := NGramCounts("ab", 4); len(got) != 0 {
		t.Errorf("expected no ngrams for short input, got %v", got)
	}
}

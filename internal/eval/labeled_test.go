package eval

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

func TestReadLabeled(t *testing.T) {
	input := "# header comment\n" +
		"valid\tuniversity\n" +
		"\n" +
		"nonsense\txqjklqjklqjkl\n" +
		"valid\thello world\n"

	samples, err := ReadLabeled(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []Sample{
		{LabelValid, "university"},
		{LabelNonsense, "xqjklqjklqjkl"},
		{LabelValid, "hello world"},
	}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i, s := range samples {
		if s != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, s, want[i])
		}
	}
}

func TestReadLabeledErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"missing tab", "valid university\n", "line 1"},
		{"unknown label", "valid\tok\nbogus\tthing\n", "line 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadLabeled(strings.NewReader(tc.input))
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not name %q", err, tc.want)
			}
		})
	}
}

func TestReadLines(t *testing.T) {
	samples, err := ReadLines(strings.NewReader("university\n# skip\n\nquestion\n"), LabelValid)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	for _, s := range samples {
		if s.Label != LabelValid {
			t.Errorf("sample %+v lost its label", s)
		}
	}
}

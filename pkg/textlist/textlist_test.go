package textlist

import (
	"reflect"
	"testing"
)

func TestParse_Separators(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"newlines", []string{"Dr. A\nDr. B\r\nDr. C"}, []string{"Dr. A", "Dr. B", "Dr. C"}},
		{"mixed", []string{"aspirin, metformin; insulin | statin"}, []string{"aspirin", "metformin", "insulin", "statin"}},
		{"empty tokens dropped", []string{" ,, ;\n | "}, []string{}},
		{"already split", []string{" flu ", "", "cold"}, []string{"flu", "cold"}},
		{"nothing", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"a, b ,c"},
		{"  x\n\ny  ", "z|w"},
		{"one;two;;three", "  four  "},
		{""},
	}

	for _, in := range inputs {
		once := Parse(in...)
		twice := Parse(once...)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Parse not idempotent for %q: %q then %q", in, once, twice)
		}
		for _, token := range once {
			if token == "" {
				t.Errorf("Parse(%q) returned an empty token", in)
			}
			if token != trim(token) {
				t.Errorf("Parse(%q) returned untrimmed token %q", in, token)
			}
		}
	}
}

func TestUnique(t *testing.T) {
	got := Unique("a, b, a", "b\nc")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique = %q, want %q", got, want)
	}
}

func trim(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

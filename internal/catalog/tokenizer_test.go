package catalog

import (
	"reflect"
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"J18.9", "J189"},
		{"j 18-9", "J189"},
		{"  s72.001a ", "S72001A"},
		{"I10", "I10"},
		{"", ""},
		{"...", ""},
		{"j18\t9", "J189"},
		{"A00_1", "A00_1"},
	}
	for _, tt := range tests {
		got := NormalizeCode(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := NormalizeCode(got); again != got {
			t.Errorf("NormalizeCode not idempotent for %q: %q then %q", tt.in, got, again)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"drops stop word and short tokens", "Pneumonia, unspecified organism", []string{"pneumonia", "organism"}},
		{"case insensitive", "PNEUMONIA, Unspecified ORGANISM", []string{"pneumonia", "organism"}},
		{"punctuation separates", "Essential (primary) hypertension", []string{"essential", "primary", "hypertension"}},
		{"two letter words dropped", "Fx of leg", []string{"leg"}},
		{"keeps duplicates", "fracture, fracture of femur", []string{"fracture", "fracture", "femur"}},
		{"digits are word characters", "Type 2 diabetes mellitus 250", []string{"type", "diabetes", "mellitus", "250"}},
		{"underscore is a word character", "foo_bar baz", []string{"foo_bar", "baz"}},
		{"modal and auxiliary verbs dropped", "should have been treated", []string{"treated"}},
		{"accents folded", "Ménière's disease", []string{"meniere", "disease"}},
		{"empty", "", []string{}},
		{"punctuation only", "!!! ... ---", []string{}},
		{"numeric only", "12", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	in := "Chronic obstructive pulmonary disease with acute lower respiratory infection"
	first := Tokenize(in)
	for i := 0; i < 10; i++ {
		if got := Tokenize(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize run %d = %v, want %v", i, got, first)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"without", "unspecified", "the", "should"} {
		if !IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false, want true", w)
		}
	}
	if IsStopWord("pneumonia") {
		t.Error("IsStopWord(pneumonia) = true, want false")
	}
}

package detector

import (
	"errors"
	"testing"
)

func TestParseFeature(t *testing.T) {
	tests := []struct {
		input   string
		want    Feature
		wantErr bool
	}{
		{"file-name", FeatureFileName, false},
		{"FILE_EXTENSION", FeatureFileExtension, false},
		{" search-source ", FeatureSearchSource, false},
		{"filename", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFeature(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFeature) {
					t.Fatalf("ParseFeature(%q) error = %v, want ErrUnknownFeature", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFeature(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseFeature(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFeatureStringRoundTrip(t *testing.T) {
	for _, f := range Features() {
		text, err := f.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", f, err)
		}
		var parsed Feature
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if parsed != f {
			t.Fatalf("round trip %v -> %q -> %v", f, text, parsed)
		}
	}
}

func TestFeatureInvalid(t *testing.T) {
	f := Feature(42)
	if f.Valid() {
		t.Fatal("Feature(42) should be invalid")
	}
	if got := f.String(); got != "feature(42)" {
		t.Fatalf("String() = %q", got)
	}
	if _, err := f.MarshalText(); !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("MarshalText error = %v, want ErrUnknownFeature", err)
	}
}

func TestStopWords(t *testing.T) {
	for _, w := range []string{"a", "the", "this", "its"} {
		if !IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false, want true", w)
		}
	}
	for _, w := range []string{"The", "bunny", "", "A"} {
		if IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = true, want false", w)
		}
	}
	words := StopWords()
	if len(words) != 22 {
		t.Fatalf("len(StopWords()) = %d, want 22", len(words))
	}
	words[0] = "mutated"
	if IsStopWord("mutated") {
		t.Fatal("StopWords must return a copy")
	}
}

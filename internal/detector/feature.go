package detector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Feature identifies where a piece of search text came from.
type Feature int

const (
	FeatureFileName Feature = iota
	FeatureFileExtension
	FeatureSearchSource
)

// ErrUnknownFeature is returned when a feature name does not match any Feature.
var ErrUnknownFeature = errors.New("unknown feature")

var featureNames = [...]string{
	FeatureFileName:      "file-name",
	FeatureFileExtension: "file-extension",
	FeatureSearchSource:  "search-source",
}

// Features returns every known feature in declaration order.
func Features() []Feature {
	return []Feature{FeatureFileName, FeatureFileExtension, FeatureSearchSource}
}

// Valid reports whether f is one of the declared features.
func (f Feature) Valid() bool {
	return f >= 0 && int(f) < len(featureNames)
}

func (f Feature) String() string {
	if !f.Valid() {
		return "feature(" + strconv.Itoa(int(f)) + ")"
	}
	return featureNames[f]
}

// ParseFeature resolves a canonical feature name such as "file-name".
// Matching ignores case and accepts underscores in place of dashes.
func ParseFeature(value string) (Feature, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for i, name := range featureNames {
		if name == normalized {
			return Feature(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, value)
}

// MarshalText implements encoding.TextMarshaler.
func (f Feature) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFeature, int(f))
	}
	return []byte(featureNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Feature) UnmarshalText(text []byte) error {
	parsed, err := ParseFeature(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

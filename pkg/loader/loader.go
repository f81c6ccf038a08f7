package loader

import (
	"fmt"
	"strings"
)

// Loader parses CloudFormation templates into the raw map structure the
// rest of the pipeline works off of.
type Loader struct {
	// TrackLocations enables source location tracking, used to attach a
	// line/column to a malformed-document error.
	TrackLocations bool
	Locations      *LocationTracker

	// ExtraTags are additional YAML short-tag -> intrinsic name mappings
	// layered on top of the closed CFN_TAGS set (pkg/config's "extra-tags"
	// knob), for custom macro tags a template's Transform may introduce.
	ExtraTags map[string]string
}

// New creates a new Loader.
func New() *Loader {
	return &Loader{}
}

// NewWithLocationTracking creates a Loader that records source locations
// while parsing YAML.
func NewWithLocationTracking() *Loader {
	return &Loader{
		TrackLocations: true,
		Locations:      NewLocationTracker(),
	}
}

// ParseRaw parses a template (auto-detecting format) and returns the raw
// map structure. The reference extractor and IR builder both work off this
// raw shape directly, since spec semantics are defined over the document
// tree, not a typed Go struct.
func (l *Loader) ParseRaw(data []byte) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return parseJSONWithIntrinsics(data)
	}
	if l.TrackLocations {
		result, tracker, err := parseYAMLWithLocations(data, l.ExtraTags)
		l.Locations = tracker
		return result, err
	}
	return parseYAMLWithIntrinsics(data, l.ExtraTags)
}

// ParseError represents a parsing error with an optional source location.
type ParseError struct {
	Message  string
	Location SourceLocation
}

func (e *ParseError) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Location.Line, e.Location.Column, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// ValidateTemplate performs the minimal structural validation needed before
// the rest of the pipeline can run: a Resources section must exist and be
// a mapping. This is the one fatal error class in spec.md §7; everything
// else (a single bad resource, an unknown Ref) is a silent skip further
// downstream, not a validation failure here.
func ValidateTemplate(data map[string]interface{}) error {
	if _, ok := data["Resources"]; !ok {
		return &ParseError{Message: "template must have a 'Resources' section"}
	}

	if _, ok := data["Resources"].(map[string]interface{}); !ok {
		return &ParseError{Message: "'Resources' must be a mapping"}
	}

	return nil
}

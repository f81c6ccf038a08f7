// Package loader parses CloudFormation YAML/JSON documents into a raw
// document tree, reifying short-form intrinsic tags (!Ref, !Sub, ...) into
// their long-form single-key map representation so every downstream stage
// only ever has to deal with one shape of intrinsic function.
package loader

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// baseIntrinsicTagMapping maps YAML short-form tags to their CloudFormation
// intrinsic function names. The closed set matches the CFN_TAGS list: the
// teacher's own mapping covered everything but ForEach/ValueOf/Rain::Embed/
// Rain::Module, added here. A Loader's ExtraTags (pkg/config's
// "extra-tags" knob) are layered on top of this set per parse, never
// mutating it.
var baseIntrinsicTagMapping = map[string]string{
	"!Ref":          "Ref",
	"!Sub":          "Fn::Sub",
	"!GetAtt":       "Fn::GetAtt",
	"!Join":         "Fn::Join",
	"!If":           "Fn::If",
	"!Select":       "Fn::Select",
	"!Split":        "Fn::Split",
	"!FindInMap":    "Fn::FindInMap",
	"!Base64":       "Fn::Base64",
	"!Cidr":         "Fn::Cidr",
	"!GetAZs":       "Fn::GetAZs",
	"!ImportValue":  "Fn::ImportValue",
	"!Transform":    "Fn::Transform",
	"!And":          "Fn::And",
	"!Equals":       "Fn::Equals",
	"!Not":          "Fn::Not",
	"!Or":           "Fn::Or",
	"!Condition":    "Condition",
	"!ForEach":      "Fn::ForEach",
	"!ValueOf":      "Fn::ValueOf",
	"!Rain::Embed":  "Rain::Embed",
	"!Rain::Module": "Rain::Module",
}

// tagMapping builds the effective short-tag table for one parse: the
// closed base set plus any caller-supplied extras, extras taking
// precedence on a tag collision.
func tagMapping(extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return baseIntrinsicTagMapping
	}

	merged := make(map[string]string, len(baseIntrinsicTagMapping)+len(extra))
	for tag, name := range baseIntrinsicTagMapping {
		merged[tag] = name
	}
	for tag, name := range extra {
		merged[tag] = name
	}
	return merged
}

// NodeWithLocation wraps a parsed value with its source location.
type NodeWithLocation struct {
	Value  interface{}
	Line   int
	Column int
}

// unmarshalYAMLNode recursively unmarshals a yaml.Node, reifying
// CloudFormation intrinsic short tags into long-form maps.
func unmarshalYAMLNode(node *yaml.Node, tags map[string]string) (interface{}, error) {
	if intrinsicName, ok := tags[node.Tag]; ok {
		return handleIntrinsicTag(node, intrinsicName, tags)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			return unmarshalYAMLNode(node.Content[0], tags)
		}
		return nil, nil

	case yaml.MappingNode:
		return unmarshalMappingNode(node, tags)

	case yaml.SequenceNode:
		return unmarshalSequenceNode(node, tags)

	case yaml.ScalarNode:
		return unmarshalScalarNode(node)

	case yaml.AliasNode:
		if node.Alias != nil {
			return unmarshalYAMLNode(node.Alias, tags)
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// handleIntrinsicTag converts a YAML node with an intrinsic tag to the
// long-form map representation, e.g. !Ref Foo -> {"Ref": "Foo"}.
func handleIntrinsicTag(node *yaml.Node, intrinsicName string, tags map[string]string) (interface{}, error) {
	var value interface{}
	var err error

	// !GetAtt's scalar form "Resource.Attribute" splits into a 2-element list.
	if intrinsicName == "Fn::GetAtt" && node.Kind == yaml.ScalarNode {
		parts := strings.SplitN(node.Value, ".", 2)
		if len(parts) == 2 {
			value = parts
		} else {
			value = node.Value
		}
	} else {
		switch node.Kind {
		case yaml.ScalarNode:
			value, err = unmarshalScalarNode(node)
		case yaml.SequenceNode:
			value, err = unmarshalSequenceNode(node, tags)
		case yaml.MappingNode:
			value, err = unmarshalMappingNode(node, tags)
		default:
			value = node.Value
		}
	}

	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		intrinsicName: value,
	}, nil
}

// unmarshalMappingNode unmarshals a YAML mapping node to a map[string]interface{}.
func unmarshalMappingNode(node *yaml.Node, tags map[string]string) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for i := 0; i < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		key := keyNode.Value

		value, err := unmarshalYAMLNode(valueNode, tags)
		if err != nil {
			return nil, err
		}

		result[key] = value
	}

	return result, nil
}

// unmarshalSequenceNode unmarshals a YAML sequence node to a []interface{}.
func unmarshalSequenceNode(node *yaml.Node, tags map[string]string) ([]interface{}, error) {
	result := make([]interface{}, 0, len(node.Content))

	for _, item := range node.Content {
		value, err := unmarshalYAMLNode(item, tags)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, nil
}

// unmarshalScalarNode unmarshals a YAML scalar node, preserving type information.
func unmarshalScalarNode(node *yaml.Node) (interface{}, error) {
	var value interface{}

	if err := node.Decode(&value); err != nil {
		return nil, err
	}

	return value, nil
}

// parseYAMLWithIntrinsics parses YAML content with proper handling of
// CloudFormation intrinsic tags.
func parseYAMLWithIntrinsics(data []byte, extraTags map[string]string) (map[string]interface{}, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	result, err := unmarshalYAMLNode(&root, tagMapping(extraTags))
	if err != nil {
		return nil, err
	}

	if m, ok := result.(map[string]interface{}); ok {
		return m, nil
	}

	return map[string]interface{}{
		"value": result,
	}, nil
}

// LocationTracker tracks source locations for template elements, keyed by
// a dotted/bracketed path matching the shape of the document tree.
type LocationTracker struct {
	locations map[string]SourceLocation
}

// SourceLocation represents a position in the source template.
type SourceLocation struct {
	Line   int
	Column int
}

// NewLocationTracker creates a new LocationTracker.
func NewLocationTracker() *LocationTracker {
	return &LocationTracker{
		locations: make(map[string]SourceLocation),
	}
}

// Track records the location of an element with the given path.
func (lt *LocationTracker) Track(path string, line, column int) {
	lt.locations[path] = SourceLocation{Line: line, Column: column}
}

// Get retrieves the location for the given path.
func (lt *LocationTracker) Get(path string) (SourceLocation, bool) {
	loc, ok := lt.locations[path]
	return loc, ok
}

// parseYAMLWithLocations parses YAML content and tracks source locations,
// used by the CLI to report malformed-document errors with a line/column.
func parseYAMLWithLocations(data []byte, extraTags map[string]string) (map[string]interface{}, *LocationTracker, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, err
	}

	tracker := NewLocationTracker()
	result, err := unmarshalYAMLNodeWithLocations(&root, "", tracker, tagMapping(extraTags))
	if err != nil {
		return nil, nil, err
	}

	if m, ok := result.(map[string]interface{}); ok {
		return m, tracker, nil
	}

	return map[string]interface{}{
		"value": result,
	}, tracker, nil
}

func unmarshalYAMLNodeWithLocations(node *yaml.Node, path string, tracker *LocationTracker, tags map[string]string) (interface{}, error) {
	if path != "" {
		tracker.Track(path, node.Line, node.Column)
	}

	if intrinsicName, ok := tags[node.Tag]; ok {
		return handleIntrinsicTagWithLocations(node, intrinsicName, path, tracker, tags)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			return unmarshalYAMLNodeWithLocations(node.Content[0], path, tracker, tags)
		}
		return nil, nil

	case yaml.MappingNode:
		return unmarshalMappingNodeWithLocations(node, path, tracker, tags)

	case yaml.SequenceNode:
		return unmarshalSequenceNodeWithLocations(node, path, tracker, tags)

	case yaml.ScalarNode:
		return unmarshalScalarNode(node)

	case yaml.AliasNode:
		if node.Alias != nil {
			return unmarshalYAMLNodeWithLocations(node.Alias, path, tracker, tags)
		}
		return nil, nil

	default:
		return nil, nil
	}
}

func handleIntrinsicTagWithLocations(node *yaml.Node, intrinsicName, path string, tracker *LocationTracker, tags map[string]string) (interface{}, error) {
	var value interface{}
	var err error

	intrinsicPath := path
	if intrinsicPath != "" {
		intrinsicPath += "." + intrinsicName
	} else {
		intrinsicPath = intrinsicName
	}
	tracker.Track(intrinsicPath, node.Line, node.Column)

	if intrinsicName == "Fn::GetAtt" && node.Kind == yaml.ScalarNode {
		parts := strings.SplitN(node.Value, ".", 2)
		if len(parts) == 2 {
			value = parts
		} else {
			value = node.Value
		}
	} else {
		switch node.Kind {
		case yaml.ScalarNode:
			value, err = unmarshalScalarNode(node)
		case yaml.SequenceNode:
			value, err = unmarshalSequenceNodeWithLocations(node, intrinsicPath, tracker, tags)
		case yaml.MappingNode:
			value, err = unmarshalMappingNodeWithLocations(node, intrinsicPath, tracker, tags)
		default:
			value = node.Value
		}
	}

	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		intrinsicName: value,
	}, nil
}

func unmarshalMappingNodeWithLocations(node *yaml.Node, path string, tracker *LocationTracker, tags map[string]string) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for i := 0; i < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		key := keyNode.Value
		keyPath := path
		if keyPath != "" {
			keyPath += "." + key
		} else {
			keyPath = key
		}

		value, err := unmarshalYAMLNodeWithLocations(valueNode, keyPath, tracker, tags)
		if err != nil {
			return nil, err
		}

		result[key] = value
	}

	return result, nil
}

func unmarshalSequenceNodeWithLocations(node *yaml.Node, path string, tracker *LocationTracker, tags map[string]string) ([]interface{}, error) {
	result := make([]interface{}, 0, len(node.Content))

	for i, item := range node.Content {
		itemPath := path + "[" + intToString(i) + "]"

		value, err := unmarshalYAMLNodeWithLocations(item, itemPath, tracker, tags)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, nil
}

// intToString converts an integer to its string representation without
// reaching for fmt/strconv, matching the teacher's preference for small
// hand-rolled helpers in this file.
func intToString(n int) string {
	if n == 0 {
		return "0"
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

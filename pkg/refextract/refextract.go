// Package refextract implements the reference extractor (spec.md §4.1):
// two independent tree walks over a CloudFormation value that collect (a)
// the names referenced through Ref/GetAtt/FindInMap/Sub/Join/pseudo-
// parameters, and (b) the condition names referenced through Condition
// keys and Fn::If branches. Neither walk resolves a reference to a value —
// they only report which names were mentioned and how.
package refextract

import "regexp"

// substitutionPattern matches ${Name} / ${Name.Attr} placeholders inside
// an Fn::Sub template string.
var substitutionPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// pseudoParameterPattern matches any AWS::Xyz token appearing in plain
// template text (used when pseudo-parameters are referenced as bare
// strings rather than through Ref).
var pseudoParameterPattern = regexp.MustCompile(`AWS::[A-Za-z0-9]+`)

// firstSegment returns the portion of s before the first '.', or all of s
// if there is no '.'. GetAtt and Fn::Sub placeholders both truncate at the
// first dot to recover the referenced logical id from "Resource.Attr".
func firstSegment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}

// DataRefs returns every parameter/resource/pseudo-parameter name
// referenced anywhere within value, via Ref, Fn::GetAtt, Fn::FindInMap,
// Fn::Sub, Fn::Join, or a bare pseudo-parameter token in plain text.
// Names may repeat; callers that need a set should dedup themselves.
func DataRefs(value interface{}) []string {
	var out []string
	walkDataRefs(value, &out)
	return out
}

func walkDataRefs(value interface{}, out *[]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			switch key {
			case "Ref", "Fn::Ref":
				if s, ok := val.(string); ok {
					*out = append(*out, s)
				}
			case "Fn::GetAtt", "GetAtt":
				switch g := val.(type) {
				case []interface{}:
					if len(g) > 0 {
						if s, ok := g[0].(string); ok {
							*out = append(*out, s)
						}
					}
				case string:
					*out = append(*out, firstSegment(g))
				}
			case "Fn::FindInMap", "FindInMap":
				if arr, ok := val.([]interface{}); ok && len(arr) > 0 {
					if s, ok := arr[0].(string); ok {
						*out = append(*out, s)
					}
					for _, rest := range arr[1:] {
						walkDataRefs(rest, out)
					}
				}
			case "Fn::Sub", "Sub":
				walkSub(val, out)
			case "Fn::Join", "Join":
				if arr, ok := val.([]interface{}); ok && len(arr) == 2 {
					walkDataRefs(arr[1], out)
				}
			default:
				switch val.(type) {
				case map[string]interface{}, []interface{}:
					walkDataRefs(val, out)
				case string:
					scanPseudoParameters(val.(string), out)
				}
			}
		}
	case []interface{}:
		for _, item := range v {
			walkDataRefs(item, out)
		}
	case string:
		scanPseudoParameters(v, out)
	}
}

// walkSub handles both the string and [template, bindings] forms of
// Fn::Sub. A name bound in the bindings map shadows the placeholder: the
// bound value is walked instead of the placeholder name being emitted.
func walkSub(val interface{}, out *[]string) {
	switch sub := val.(type) {
	case string:
		emitSubMatches(sub, nil, out)
	case []interface{}:
		if len(sub) != 2 {
			return
		}
		template, ok := sub[0].(string)
		if !ok {
			return
		}
		bindings, _ := sub[1].(map[string]interface{})
		emitSubMatches(template, bindings, out)
	}
}

func emitSubMatches(template string, bindings map[string]interface{}, out *[]string) {
	matches := substitutionPattern.FindAllStringSubmatch(template, -1)
	shadowed := make(map[string]bool)
	for _, m := range matches {
		name := m[1]
		if bound, ok := bindings[name]; ok && !shadowed[name] {
			shadowed[name] = true
			walkDataRefs(bound, out)
		}
	}
	for _, m := range matches {
		name := m[1]
		if shadowed[name] {
			continue
		}
		*out = append(*out, firstSegment(name))
	}
}

func scanPseudoParameters(s string, out *[]string) {
	for _, m := range pseudoParameterPattern.FindAllString(s, -1) {
		*out = append(*out, m)
	}
}

// FindPseudoParameters returns every AWS::Xyz token found in s, used by
// pkg/ir to scan the pseudo-parameter search scope (a flattened rendering
// of several template sections) for bare pseudo-parameter mentions.
func FindPseudoParameters(s string) []string {
	return pseudoParameterPattern.FindAllString(s, -1)
}

// ConditionRefs returns every condition name referenced through a bare
// "Condition": "Name" key anywhere within value (e.g. inside Fn::And/
// Fn::Or/Fn::Not expressions, or a resource/rule's Condition argument),
// each prefixed with cfn.ConditionPrefix.
func ConditionRefs(value interface{}, prefix string) []string {
	var out []string
	walkConditionRefs(value, prefix, &out)
	return out
}

func walkConditionRefs(value interface{}, prefix string, out *[]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if key == "Condition" {
				if s, ok := val.(string); ok {
					*out = append(*out, prefix+s)
					continue
				}
			}
			walkConditionRefs(val, prefix, out)
		}
	case []interface{}:
		for _, item := range v {
			walkConditionRefs(item, prefix, out)
		}
	}
}

// PropertyConditionRefs returns every condition name a property value
// depends on through Fn::If, prefixed with prefix, recursing into both
// branches of each If to find nested Ifs (spec.md §4.2 step 6's
// depend_conditions on PropertyUnit).
func PropertyConditionRefs(value interface{}, prefix string) []string {
	var out []string
	walkPropertyConditionRefs(value, prefix, &out)
	return out
}

func walkPropertyConditionRefs(value interface{}, prefix string, out *[]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if key == "Fn::If" || key == "If" {
				if arr, ok := val.([]interface{}); ok && len(arr) == 3 {
					if name, ok := arr[0].(string); ok {
						*out = append(*out, prefix+name)
					}
					walkPropertyConditionRefs(arr[1], prefix, out)
					walkPropertyConditionRefs(arr[2], prefix, out)
					continue
				}
			}
			walkPropertyConditionRefs(val, prefix, out)
		}
	case []interface{}:
		for _, item := range v {
			walkPropertyConditionRefs(item, prefix, out)
		}
	}
}

// SplitRefs partitions a list of raw referenced names into resource and
// parameter refs using the two membership sets, silently dropping any
// name that matches neither (spec.md §7: unknown reference names are
// dropped, not errors).
func SplitRefs(names []string, resourceNames, parameterNames map[string]bool) (resourceRefs, parameterRefs []string) {
	for _, name := range names {
		switch {
		case resourceNames[name]:
			resourceRefs = append(resourceRefs, name)
		case parameterNames[name]:
			parameterRefs = append(parameterRefs, name)
		}
	}
	return resourceRefs, parameterRefs
}

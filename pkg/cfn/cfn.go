// Package cfn provides the handful of CloudFormation document constants and
// lookups the rest of the pipeline shares: the closed set of pseudo-
// parameters, the resource-argument key mapping, and the graph's id
// namespacing prefixes. The document itself travels through the pipeline
// as a raw map (see pkg/loader.ParseRaw), not a typed struct — spec
// semantics are defined over the document tree, not a Go type.
package cfn

// argumentMappings is the closed set of resource/top-level argument keys
// the dependency graph builder recognizes, mapped to the IR's internal
// argument name.
var argumentMappings = map[string]string{
	"Condition":           "condition",
	"DependsOn":           "depends_on",
	"CreationPolicy":      "creation_policy",
	"UpdatePolicy":        "update_policy",
	"DeletionPolicy":      "deletion_policy",
	"UpdateReplacePolicy": "update_replace_policy",
}

// ArgumentName returns the IR argument name for a top-level resource key,
// and whether that key is one of the recognized arguments at all. Keys not
// in the closed set (e.g. "Type", "Properties", "Metadata") are dropped by
// the caller, matching the original parser's behavior.
func ArgumentName(key string) (string, bool) {
	name, ok := argumentMappings[key]
	return name, ok
}

// KnownPseudoParameters is the closed set of AWS pseudo-parameters the
// reference extractor recognizes via regex scan of template text.
var KnownPseudoParameters = map[string]bool{
	"AWS::StackName":        true,
	"AWS::Region":           true,
	"AWS::AccountId":        true,
	"AWS::NoValue":          true,
	"AWS::Partition":        true,
	"AWS::URLSuffix":        true,
	"AWS::StackId":          true,
	"AWS::NotificationARNs": true,
}

// ConditionPrefix namespaces condition ids/names to avoid collision with
// parameter and resource ids in the dependency graph's id space.
const ConditionPrefix = "Cond."

// OutputPrefix namespaces output ids/names for the same reason.
const OutputPrefix = "Out."

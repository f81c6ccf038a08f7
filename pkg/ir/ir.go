// Package ir builds the intermediate representation described in
// spec.md §3/§4.2: one record per Parameter, Condition, Resource (with its
// PropertyUnits), and Output, plus template-level metadata. Building
// proceeds in two passes per section — ids are pre-assigned for every
// entity in a section before any entity's body is built — so a reference
// to a resource or condition declared later in the document still
// resolves (spec.md §4.2's forward-reference requirement).
//
// Reference fields (RuledPara, DependPara, DependCond, ResourceRefs,
// ParameterRefs, DependConditions, SourceResource, SourceParameter,
// ExportName.*) hold the *ids* of the referenced entities, not their
// names — the dependency graph builder resolves those ids back to names
// when it creates edges (pkg/depgraph mirrors this indirection exactly as
// original_source/analysis/dependency_graph.py does). A nil slice means
// "NA" (nothing referenced resolved, or the field does not apply); the
// builder never stores an empty non-nil slice, so a rule that asserts no
// resolvable parameter is told apart from an ordinary condition by
// Condition.IsRule, not by RuledPara.
package ir

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lex00/cfn-depgraph/pkg/cfn"
	"github.com/lex00/cfn-depgraph/pkg/refextract"
	"github.com/lex00/cfn-depgraph/pkg/utils"
)

// Parameter is an IR parameter entry. Besides declared CloudFormation
// parameters, this also models pseudo-parameters (AWS::Region, ...) and
// Mappings tables as synthetic parameters, following
// original_source/cloudformation_parser.py's extract_pseudo_parameters and
// extract_mapping_parameters.
type Parameter struct {
	ID          string
	Name        string
	Type        string // "String" (or declared type), "pseudo-parameter", "mapping"
	Default     interface{}
	Constraints map[string]interface{} // nil = NA
	Description string
}

// Condition is an IR condition entry. Rules sections are folded in as
// synthetic conditions named "Cond.<RuleName>" with IsRule set, per
// SPEC_FULL.md §5.
type Condition struct {
	ID         string
	Name       string
	IsRule     bool
	RuledPara  []string // parameter ids asserted by a Rule; nil for ordinary conditions
	DependPara []string // parameter ids this condition's expression references
	DependCond []string // condition ids this condition's expression references
}

// PropertyUnit is one property of a resource, carrying everything that
// property's value references.
type PropertyUnit struct {
	Name             string
	Value            interface{} // verbatim, unresolved
	ResourceRefs     []string
	ParameterRefs    []string
	DependConditions []string
}

// Resource is an IR resource entry.
type Resource struct {
	ID         string
	Name       string
	Type       string
	Arguments  map[string]interface{} // condition, depends_on, creation_policy, update_policy, deletion_policy, update_replace_policy
	Properties []PropertyUnit
}

// ExportNameInfo is the Export.Name sub-record of an Output.
type ExportNameInfo struct {
	Name             interface{}
	DependPara       []string
	DependResource   []string
	DependConditions []string
}

// OutputValue is the Value sub-record of an Output.
type OutputValue struct {
	Value            interface{}
	DependConditions []string
}

// Output is an IR output entry.
type Output struct {
	ID              string
	Name            string
	SourceResource  []string
	SourceParameter []string
	DependCondition []string
	ExportName      *ExportNameInfo // nil = no Export
	Value           OutputValue
}

// TemplateMeta carries template-level metadata.
type TemplateMeta struct {
	TemplateID           string
	TemplateType         string
	CloudServiceProvider string
	FileName             string
	Description          string
	AdditionalInfo       map[string]interface{} // nil = NA
}

// IR is the complete intermediate representation of one template.
type IR struct {
	Meta       TemplateMeta
	Parameters []*Parameter
	Conditions []*Condition
	Resources  []*Resource
	Outputs    []*Output
}

// builder holds the name->id lookup tables threaded through the two-pass
// construction, plus the raw document being built from.
type builder struct {
	doc map[string]interface{}

	paramNameToID     map[string]string
	conditionNameToID map[string]string
	resourceNameToID  map[string]string

	resourceNameSet  map[string]bool
	parameterNameSet map[string]bool

	// extraPseudoParameters are additional pseudo-parameter names to
	// recognize in the pseudo-parameter scan, layered on top of
	// cfn.KnownPseudoParameters (pkg/config's "extra-pseudo-parameters"
	// knob, for custom macro-introduced pseudo parameters).
	extraPseudoParameters map[string]bool
}

// Build constructs the IR for a raw, already-intrinsic-reified template
// document (as produced by pkg/loader.Loader.ParseRaw), with fileName
// recorded for template-level metadata. extraPseudoParameters names extend
// the closed cfn.KnownPseudoParameters set for this build.
func Build(doc map[string]interface{}, fileName string, extraPseudoParameters ...string) *IR {
	extra := make(map[string]bool, len(extraPseudoParameters))
	for _, name := range extraPseudoParameters {
		extra[name] = true
	}

	b := &builder{
		doc:                   doc,
		paramNameToID:         make(map[string]string),
		conditionNameToID:     make(map[string]string),
		resourceNameToID:      make(map[string]string),
		resourceNameSet:       make(map[string]bool),
		parameterNameSet:      make(map[string]bool),
		extraPseudoParameters: extra,
	}

	result := &IR{}
	result.Meta = b.buildMeta(fileName)
	result.Parameters = b.buildParameters()
	result.Conditions = b.buildConditions()
	result.Resources = b.buildResources()
	result.Outputs = b.buildOutputs()
	return result
}

func newID() string {
	return uuid.NewString()
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func dedupStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// mapNamesToIDs converts a list of raw names into the ids those names
// resolve to in lookup, dropping any name not found (spec.md §7: unknown
// references are silently dropped). Returns nil (not empty slice) if the
// input is empty, matching "NA" semantics for an absent reference list.
func mapNamesToIDs(names []string, lookup map[string]string) []string {
	if len(names) == 0 {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, n := range names {
		id, ok := lookup[n]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// --- metadata -----------------------------------------------------------

var presentationOnlyMetadataKeys = map[string]bool{
	"AWS::CloudFormation::Interface": true,
	"AWS::CloudFormation::Designer":  true,
}

func (b *builder) buildMeta(fileName string) TemplateMeta {
	meta := TemplateMeta{
		TemplateID:   newID(),
		TemplateType: "CloudFormation",
		FileName:     fileName,
		Description:  "NA",
	}

	if version, ok := b.doc["AWSTemplateFormatVersion"].(string); ok && version != "" {
		meta.CloudServiceProvider = "AWS"
	} else {
		meta.CloudServiceProvider = "NA"
	}

	if desc, ok := b.doc["Description"].(string); ok && desc != "" {
		meta.Description = desc
	}

	additional := make(map[string]interface{})
	if rawMeta, ok := asMap(b.doc["Metadata"]); ok {
		for key, val := range rawMeta {
			if presentationOnlyMetadataKeys[key] {
				continue
			}
			additional[key] = val
		}
	}
	if len(additional) > 0 {
		meta.AdditionalInfo = additional
	}

	return meta
}

// --- parameters -----------------------------------------------------------

func (b *builder) buildParameters() []*Parameter {
	var params []*Parameter

	rawParams, _ := asMap(b.doc["Parameters"])
	for name, rawVal := range rawParams {
		raw, ok := asMap(rawVal)
		if !ok {
			continue
		}
		p := &Parameter{
			ID:   newID(),
			Name: name,
			Type: "String",
		}
		if t, ok := raw["Type"].(string); ok && t != "" {
			p.Type = t
		}
		if def, ok := raw["Default"]; ok {
			if s, ok := def.(string); ok && p.Type == "CommaDelimitedList" {
				parts := strings.Split(s, ",")
				asAny := make([]interface{}, len(parts))
				for i, part := range parts {
					asAny[i] = part
				}
				p.Default = asAny
			} else {
				p.Default = def
			}
		}
		p.Constraints = extractConstraints(raw)
		if desc, ok := raw["Description"].(string); ok {
			p.Description = desc
		}

		b.paramNameToID[name] = p.ID
		b.parameterNameSet[name] = true
		params = append(params, p)
	}

	params = append(params, b.buildPseudoParameters()...)
	params = append(params, b.buildMappingParameters()...)

	return params
}

func extractConstraints(raw map[string]interface{}) map[string]interface{} {
	constraints := make(map[string]interface{})
	for _, key := range []string{"AllowedValues", "AllowedPattern", "MinValue", "MaxValue", "MinLength", "MaxLength"} {
		if v, ok := raw[key]; ok {
			constraints[key] = v
		}
	}
	if len(constraints) == 0 {
		return nil
	}
	return constraints
}

// pseudoParameterSearchScope renders exactly the sections original_source
// scans for bare AWS::* tokens: Parameters, Conditions, each resource's
// Properties, Outputs, Rules. Mappings and resource Metadata/policies are
// intentionally excluded (SPEC_FULL.md §5).
func (b *builder) pseudoParameterSearchScope() string {
	var parts []string
	collect := func(v interface{}) {
		if v == nil {
			return
		}
		parts = append(parts, stringifyForScan(v))
	}

	collect(b.doc["Parameters"])
	collect(b.doc["Conditions"])
	if resources, ok := asMap(b.doc["Resources"]); ok {
		for _, rv := range resources {
			if rm, ok := asMap(rv); ok {
				collect(rm["Properties"])
			}
		}
	}
	collect(b.doc["Outputs"])
	collect(b.doc["Rules"])

	return strings.Join(parts, " ")
}

// stringifyForScan renders a value well enough for the pseudo-parameter
// regex to find AWS::* tokens inside it; it does not need to be a faithful
// serialization, only to preserve substrings.
func stringifyForScan(v interface{}) string {
	var sb strings.Builder
	var walk func(interface{})
	walk = func(val interface{}) {
		switch t := val.(type) {
		case string:
			sb.WriteString(t)
			sb.WriteString(" ")
		case map[string]interface{}:
			for k, vv := range t {
				sb.WriteString(k)
				sb.WriteString(" ")
				walk(vv)
			}
		case []interface{}:
			for _, vv := range t {
				walk(vv)
			}
		}
	}
	walk(v)
	return sb.String()
}

func (b *builder) buildPseudoParameters() []*Parameter {
	scope := b.pseudoParameterSearchScope()
	var names []string
	for _, match := range refextract.FindPseudoParameters(scope) {
		if cfn.KnownPseudoParameters[match] {
			names = append(names, match)
		}
	}
	for name := range b.extraPseudoParameters {
		if strings.Contains(scope, name) {
			names = append(names, name)
		}
	}
	names = dedupStrings(names)

	var params []*Parameter
	for _, name := range names {
		if b.parameterNameSet[name] {
			continue
		}
		p := &Parameter{
			ID:   newID(),
			Name: name,
			Type: "pseudo-parameter",
		}
		b.paramNameToID[name] = p.ID
		b.parameterNameSet[name] = true
		params = append(params, p)
	}
	return params
}

func (b *builder) buildMappingParameters() []*Parameter {
	mappings, ok := asMap(b.doc["Mappings"])
	if !ok {
		return nil
	}

	var params []*Parameter
	for name, data := range mappings {
		p := &Parameter{
			ID:   newID(),
			Name: name,
			Type: "mapping",
		}
		if data != nil {
			p.Default = map[string]interface{}{name: utils.CopyValue(data)}
		}
		b.paramNameToID[name] = p.ID
		b.parameterNameSet[name] = true
		params = append(params, p)
	}
	return params
}

// --- conditions -----------------------------------------------------------

func (b *builder) buildConditions() []*Condition {
	var conditions []*Condition

	// Pass 1: pre-assign ids for every Rule and every Condition so
	// forward references between them resolve.
	type pending struct {
		name   string
		isRule bool
		raw    interface{}
	}
	var order []pending

	rawRules, _ := asMap(b.doc["Rules"])
	for name, raw := range rawRules {
		fullName := cfn.ConditionPrefix + name
		id := newID()
		b.conditionNameToID[fullName] = id
		order = append(order, pending{name: fullName, isRule: true, raw: raw})
	}

	rawConditions, _ := asMap(b.doc["Conditions"])
	for name, raw := range rawConditions {
		fullName := cfn.ConditionPrefix + name
		id := newID()
		b.conditionNameToID[fullName] = id
		order = append(order, pending{name: fullName, isRule: false, raw: raw})
	}

	// Pass 2: build each body now that every condition/rule id is known.
	for _, p := range order {
		id := b.conditionNameToID[p.name]
		c := &Condition{ID: id, Name: p.name, IsRule: p.isRule}

		if p.isRule {
			ruleBody, _ := asMap(p.raw)
			var ruledParaNames []string
			if assertVal, ok := ruleBody["Assert"]; ok {
				ruledParaNames = refextract.DataRefs(assertVal)
			} else if asserts, ok := ruleBody["Assertions"].([]interface{}); ok {
				for _, a := range asserts {
					if am, ok := asMap(a); ok {
						ruledParaNames = append(ruledParaNames, refextract.DataRefs(am["Assert"])...)
					}
				}
			}
			c.RuledPara = mapNamesToIDs(dedupStrings(ruledParaNames), b.paramNameToID)

			var dependParaNames []string
			if cond, ok := asMap(ruleBody["RuleCondition"]); ok {
				dependParaNames = refextract.DataRefs(cond)
			}
			c.DependPara = mapNamesToIDs(dedupStrings(dependParaNames), b.paramNameToID)
		} else {
			dependParaNames := refextract.DataRefs(p.raw)
			c.DependPara = mapNamesToIDs(dedupStrings(dependParaNames), b.paramNameToID)

			dependCondNames := refextract.ConditionRefs(p.raw, cfn.ConditionPrefix)
			c.DependCond = mapNamesToIDs(dedupStrings(dependCondNames), b.conditionNameToID)
		}

		conditions = append(conditions, c)
	}

	return conditions
}

// --- resources -----------------------------------------------------------

// filterResourceBody reports whether a raw resource entry is a real
// CloudFormation resource: it must be a mapping with a string Type that
// does not start with "Rain::" (spec.md §7).
func filterResourceBody(raw interface{}) (map[string]interface{}, string, bool) {
	m, ok := asMap(raw)
	if !ok {
		return nil, "", false
	}
	typ, ok := m["Type"].(string)
	if !ok || typ == "" || strings.HasPrefix(typ, "Rain::") {
		return nil, "", false
	}
	return m, typ, true
}

func (b *builder) buildResources() []*Resource {
	var resources []*Resource

	rawResources, _ := asMap(b.doc["Resources"])

	type pending struct {
		name string
		body map[string]interface{}
		typ  string
	}
	var order []pending

	for name, raw := range rawResources {
		body, typ, ok := filterResourceBody(raw)
		if !ok {
			continue
		}
		id := newID()
		b.resourceNameToID[name] = id
		b.resourceNameSet[name] = true
		order = append(order, pending{name: name, body: body, typ: typ})
	}

	for _, p := range order {
		r := &Resource{
			ID:   b.resourceNameToID[p.name],
			Name: p.name,
			Type: p.typ,
		}
		r.Arguments = b.buildResourceArguments(p.body)
		r.Properties = b.buildResourceProperties(p.body)
		resources = append(resources, r)
	}

	return resources
}

func (b *builder) buildResourceArguments(body map[string]interface{}) map[string]interface{} {
	args := make(map[string]interface{})
	for key, val := range body {
		argName, ok := cfn.ArgumentName(key)
		if !ok {
			continue
		}
		if key == "Condition" {
			if s, ok := val.(string); ok {
				val = cfn.ConditionPrefix + s
			}
		}
		args[argName] = val
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

func (b *builder) buildResourceProperties(body map[string]interface{}) []PropertyUnit {
	props, _ := asMap(body["Properties"])
	if len(props) == 0 {
		return nil
	}

	units := make([]PropertyUnit, 0, len(props))
	for name, val := range props {
		names := dedupStrings(refextract.DataRefs(val))
		resourceRefs, parameterRefs := refextract.SplitRefs(names, b.resourceNameSet, b.parameterNameSet)

		unit := PropertyUnit{
			Name:             name,
			Value:            utils.CopyValue(val),
			ResourceRefs:     mapNamesToIDs(resourceRefs, b.resourceNameToID),
			ParameterRefs:    mapNamesToIDs(parameterRefs, b.paramNameToID),
			DependConditions: mapNamesToIDs(dedupStrings(refextract.PropertyConditionRefs(val, cfn.ConditionPrefix)), b.conditionNameToID),
		}
		units = append(units, unit)
	}
	return units
}

// --- outputs -----------------------------------------------------------

func (b *builder) buildOutputs() []*Output {
	rawOutputs, _ := asMap(b.doc["Outputs"])
	if len(rawOutputs) == 0 {
		return nil
	}

	var outputs []*Output
	for name, raw := range rawOutputs {
		if strings.HasPrefix(name, "Fn::ForEach::") {
			continue
		}
		body, ok := asMap(raw)
		if !ok {
			continue
		}

		o := &Output{ID: newID(), Name: cfn.OutputPrefix + name}

		pureData := make(map[string]interface{}, len(body))
		for k, v := range body {
			if k == "Export" {
				continue
			}
			pureData[k] = v
		}
		names := dedupStrings(refextract.DataRefs(pureData))
		resourceRefs, parameterRefs := refextract.SplitRefs(names, b.resourceNameSet, b.parameterNameSet)
		o.SourceResource = mapNamesToIDs(resourceRefs, b.resourceNameToID)
		o.SourceParameter = mapNamesToIDs(parameterRefs, b.paramNameToID)

		if cond, ok := body["Condition"].(string); ok && cond != "" {
			o.DependCondition = mapNamesToIDs([]string{cfn.ConditionPrefix + cond}, b.conditionNameToID)
		}

		if val, ok := body["Value"]; ok {
			o.Value = OutputValue{
				Value:            utils.CopyValue(val),
				DependConditions: mapNamesToIDs(dedupStrings(refextract.PropertyConditionRefs(val, cfn.ConditionPrefix)), b.conditionNameToID),
			}
		}

		if exportRaw, ok := asMap(body["Export"]); ok {
			o.ExportName = b.buildExportName(exportRaw)
		}

		outputs = append(outputs, o)
	}
	return outputs
}

func (b *builder) buildExportName(export map[string]interface{}) *ExportNameInfo {
	info := &ExportNameInfo{Name: export["Name"]}

	var dependElements []string
	var dependConditions []string
	for _, val := range export {
		dependElements = append(dependElements, refextract.DataRefs(val)...)
		dependConditions = append(dependConditions, refextract.PropertyConditionRefs(val, cfn.ConditionPrefix)...)
	}
	names := dedupStrings(dependElements)
	resourceRefs, parameterRefs := refextract.SplitRefs(names, b.resourceNameSet, b.parameterNameSet)

	info.DependResource = mapNamesToIDs(resourceRefs, b.resourceNameToID)
	info.DependPara = mapNamesToIDs(parameterRefs, b.paramNameToID)
	info.DependConditions = mapNamesToIDs(dedupStrings(dependConditions), b.conditionNameToID)

	return info
}

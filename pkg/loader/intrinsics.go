package loader

// IntrinsicFunctionNames contains all recognized CloudFormation intrinsic
// function names, in their long (reified) form.
var IntrinsicFunctionNames = []string{
	"Ref",
	"Fn::GetAtt",
	"Fn::Sub",
	"Fn::Join",
	"Fn::If",
	"Fn::Select",
	"Fn::Split",
	"Fn::FindInMap",
	"Fn::Base64",
	"Fn::Cidr",
	"Fn::GetAZs",
	"Fn::ImportValue",
	"Fn::Transform",
	"Fn::And",
	"Fn::Equals",
	"Fn::Not",
	"Fn::Or",
	"Condition",
	"Fn::ForEach",
	"Fn::ValueOf",
	"Rain::Embed",
	"Rain::Module",
}

var intrinsicFunctionSet = func() map[string]bool {
	set := make(map[string]bool, len(IntrinsicFunctionNames))
	for _, name := range IntrinsicFunctionNames {
		set[name] = true
	}
	return set
}()

// IsIntrinsic reports whether a value represents a CloudFormation intrinsic
// function: a map with exactly one key that is a recognized intrinsic name.
func IsIntrinsic(value interface{}) bool {
	return IntrinsicName(value) != ""
}

// IntrinsicName returns the intrinsic function name if the value is an
// intrinsic, otherwise the empty string.
func IntrinsicName(value interface{}) string {
	m, ok := value.(map[string]interface{})
	if !ok {
		return ""
	}
	if len(m) != 1 {
		return ""
	}
	for key := range m {
		if intrinsicFunctionSet[key] {
			return key
		}
	}
	return ""
}

// IntrinsicValue returns the value bound to an intrinsic function's key.
// Returns nil if value is not an intrinsic.
func IntrinsicValue(value interface{}) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if len(m) != 1 {
		return nil
	}
	for key, val := range m {
		if intrinsicFunctionSet[key] {
			return val
		}
	}
	return nil
}

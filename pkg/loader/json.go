package loader

import (
	"encoding/json"
	"fmt"
)

// parseJSONWithIntrinsics parses JSON content. JSON has no short-tag form,
// so intrinsics already arrive as long-form single-key maps; this just
// normalizes nested values the same way the YAML path does.
func parseJSONWithIntrinsics(data []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	processed, err := processJSONValue(result)
	if err != nil {
		return nil, err
	}

	if m, ok := processed.(map[string]interface{}); ok {
		return m, nil
	}

	return result, nil
}

func processJSONValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return processJSONMap(v)
	case []interface{}:
		return processJSONArray(v)
	default:
		return value, nil
	}
}

func processJSONMap(m map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for key, value := range m {
		processed, err := processJSONValue(value)
		if err != nil {
			return nil, err
		}
		result[key] = processed
	}

	return result, nil
}

func processJSONArray(arr []interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(arr))

	for i, item := range arr {
		processed, err := processJSONValue(item)
		if err != nil {
			return nil, err
		}
		result[i] = processed
	}

	return result, nil
}

package tool

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ArgReport lists how a call's arguments differ from the declared schema.
type ArgReport struct {
	Unknown    []string
	Missing    []string
	Mismatched []string
}

func (r ArgReport) Clean() bool {
	return len(r.Unknown) == 0 && len(r.Missing) == 0 && len(r.Mismatched) == 0
}

// CheckArguments compares input against the tool's parameter schema. It never
// rejects a well-formed object: differences are reported so the caller can log
// them and pass the arguments through unchanged. Only input that is not a JSON
// object is an error.
func CheckArguments(schema map[string]interface{}, input json.RawMessage) (ArgReport, error) {
	var report ArgReport

	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	var args map[string]interface{}
	if err := json.Unmarshal(input, &args); err != nil {
		return report, fmt.Errorf("arguments are not a JSON object: %w", err)
	}

	for _, field := range requiredFields(schema) {
		if _, exists := args[field]; !exists {
			report.Missing = append(report.Missing, field)
		}
	}

	properties, _ := schema["properties"].(map[string]interface{})
	for key, value := range args {
		propSchema, defined := properties[key]
		if !defined {
			report.Unknown = append(report.Unknown, key)
			continue
		}
		if propMap, ok := propSchema.(map[string]interface{}); ok && !matchesType(propMap, value) {
			report.Mismatched = append(report.Mismatched, key)
		}
	}

	sort.Strings(report.Unknown)
	sort.Strings(report.Mismatched)
	return report, nil
}

func requiredFields(schema map[string]interface{}) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []interface{}:
		out := make([]string, 0, len(required))
		for _, field := range required {
			if name, ok := field.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

func matchesType(schema map[string]interface{}, value interface{}) bool {
	expectedType, ok := schema["type"].(string)
	if !ok {
		return true
	}

	switch expectedType {
	case "string":
		s, ok := value.(string)
		if !ok {
			return false
		}
		return inEnum(schema, s)
	case "number", "integer":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	}
	return true
}

func inEnum(schema map[string]interface{}, s string) bool {
	var values []string
	switch enum := schema["enum"].(type) {
	case []string:
		values = enum
	case []interface{}:
		for _, v := range enum {
			if str, ok := v.(string); ok {
				values = append(values, str)
			}
		}
	default:
		return true
	}
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

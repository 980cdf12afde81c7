package redact

import "strings"

// DefaultSecretKeys are context keys whose values are always replaced,
// whatever their content or type.
var DefaultSecretKeys = []string{
	"password", "pwd", "pin", "cvv", "cvc",
	"card_number", "credit_card", "passport", "snils", "inn",
	"token", "secret", "api_key",
}

// MaskValue replaces any non-nil value, numbers and bools included, with "***".
func MaskValue(v any) any {
	if v == nil {
		return nil
	}
	return "***"
}

// MaskMap returns a copy of data safe to persist: values under keys listed in
// keys (case insensitive) are replaced via MaskValue, other string values go
// through Mask, other numbers and bools are kept, and nested maps and slices
// are walked.
func MaskMap(data map[string]any, keys []string) map[string]any {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[strings.ToLower(k)] = true
	}
	return maskMap(data, keySet)
}

// MaskAuto masks DefaultSecretKeys plus any extra keys.
func MaskAuto(data map[string]any, extraKeys ...string) map[string]any {
	allKeys := append([]string{}, DefaultSecretKeys...)
	allKeys = append(allKeys, extraKeys...)
	return MaskMap(data, allKeys)
}

func maskMap(data map[string]any, keySet map[string]bool) map[string]any {
	if data == nil {
		return nil
	}
	result := make(map[string]any, len(data))
	for k, v := range data {
		if keySet[strings.ToLower(k)] {
			result[k] = MaskValue(v)
			continue
		}
		result[k] = maskAny(v, keySet)
	}
	return result
}

func maskAny(v any, keySet map[string]bool) any {
	switch x := v.(type) {
	case string:
		return Mask(x)
	case map[string]any:
		return maskMap(x, keySet)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = maskAny(e, keySet)
		}
		return out
	case []string:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = Mask(e)
		}
		return out
	default:
		return v
	}
}

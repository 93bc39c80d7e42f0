package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]struct{}{
	"phone":        {},
	"member_phone": {},
	"memberphone":  {},
}

// MaskPhone keeps the last three digits of a phone number.
func MaskPhone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 3 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-3:]
}

// MaskMetadata returns a copy of input with personal fields masked. Nested
// maps and slices are walked; other values are copied as is.
func MaskMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if _, ok := sensitiveKeys[strings.ToLower(trimmedKey)]; ok {
			if s, isString := value.(string); isString {
				masked[trimmedKey] = MaskPhone(s)
				continue
			}
		}
		masked[trimmedKey] = maskValue(value)
	}
	return masked
}

func maskValue(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return MaskMetadata(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(item))
		}
		return out
	default:
		return value
	}
}

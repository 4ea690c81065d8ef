package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is used by TruncateString when maxLen <= 0.
const DefaultMaxStringLength = 500

// JSONToString marshals object, indented when indent is true. A marshal
// failure yields a JSON error object instead of an error, so the result is
// always safe to log.
func JSONToString(object any, indent ...bool) string {
	var (
		encoded []byte
		err     error
	)
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, "failed to marshal to JSON: "+err.Error())
	}
	return string(encoded)
}

// TruncateString shortens s to maxLen bytes and notes the original length.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

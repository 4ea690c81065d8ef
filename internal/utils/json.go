package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSONLenient decodes data into a generic value (map[string]any,
// []any, string, float64, bool or nil). When strict decoding fails the input
// is run through jsonrepair and decoded again; repaired reports whether that
// happened. Trailing commas, single quotes, comments and truncated objects
// are common in hand-written JSON-LD blocks.
func DecodeJSONLenient(data []byte) (value any, repaired bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false, fmt.Errorf("empty JSON document")
	}

	if err = json.Unmarshal(data, &value); err == nil {
		return value, false, nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, false, fmt.Errorf("invalid JSON: %w (repair failed: %v)", err, repairErr)
	}
	var repairedValue any
	if err2 := json.Unmarshal([]byte(fixed), &repairedValue); err2 != nil {
		return nil, false, fmt.Errorf("invalid JSON after repair: %w", err2)
	}
	return repairedValue, true, nil
}

package logschema

import (
	"fmt"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"decision_event": {
		Event:    "decision_event",
		Required: []string{"symbol", "bias", "bidVolume", "askVolume", "imbalance"},
	},
	"decision_skipped": {
		Event:    "decision_skipped",
		Required: []string{"symbol", "axis", "reason"},
	},
	"error_event": {
		Event:    "error_event",
		Required: []string{"error"},
	},
	"config_reload": {
		Event:    "config_reload",
		Required: []string{"volatilityThreshold", "tieBreak"},
	},
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}

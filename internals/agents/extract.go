package agents

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON pulls the first JSON object embedded in model prose: the slice
// between the first '{' and the last '}'. Returns false when no object is
// present or the slice is not valid JSON.
func ExtractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	raw := content[start : end+1]
	if !gjson.Valid(raw) {
		return "", false
	}
	return raw, true
}

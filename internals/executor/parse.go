package executor

import (
	"github.com/tidwall/gjson"

	"github.com/victorvelazquez/dev-orchestrator/internals/agents"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

// ParseStepResult interprets the raw model response for a single step.
// Malformed output is diagnostic data, not a crash: anything that cannot be
// read as a step result becomes a failure result carrying the reason.
func ParseStepResult(content string) schemas.StepResult {
	raw, ok := agents.ExtractJSON(content)
	if !ok {
		return schemas.StepResult{
			Success: false,
			Error:   "model response contained no parseable JSON object",
		}
	}

	parsed := gjson.Parse(raw)

	if !parsed.Get("success").Bool() {
		errMsg := parsed.Get("error").String()
		if errMsg == "" {
			errMsg = "step reported failure without detail"
		}
		return schemas.StepResult{
			Success:    false,
			Error:      errMsg,
			Suggestion: parsed.Get("suggestion").String(),
		}
	}

	action := schemas.StepAction(parsed.Get("action").String())
	switch action {
	case schemas.StepActionCreate, schemas.StepActionModify, schemas.StepActionDelete:
	case "":
		action = schemas.StepActionModify
	default:
		return schemas.StepResult{
			Success: false,
			Error:   "unknown step action: " + string(action),
		}
	}

	return schemas.StepResult{
		Success:     true,
		Action:      action,
		FilePath:    parsed.Get("file_path").String(),
		Content:     parsed.Get("content").String(),
		Explanation: parsed.Get("explanation").String(),
	}
}

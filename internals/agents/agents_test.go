package agents

import (
	"errors"
	"testing"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

func TestExtractJSON(t *testing.T) {
	raw, ok := ExtractJSON("Here is the result:\n{\"a\": 1}\nDone.")
	if !ok || raw != `{"a": 1}` {
		t.Fatalf("unexpected extraction %q %v", raw, ok)
	}

	if _, ok := ExtractJSON("no json here"); ok {
		t.Fatalf("expected no JSON")
	}
	if _, ok := ExtractJSON("{broken"); ok {
		t.Fatalf("expected invalid JSON to be rejected")
	}
}

func TestParseIntentResult(t *testing.T) {
	content := `Sure, classified:
{
  "intent": "TASK_NEW",
  "confidence": 0.95,
  "needs_clarification": false,
  "extracted_info": {"repo": "github.com/acme/app", "task_type": "feature"}
}`
	result := ParseIntentResult(content)
	if result.Intent != schemas.IntentTaskNew {
		t.Fatalf("unexpected intent %s", result.Intent)
	}
	if result.Confidence != 0.95 {
		t.Fatalf("unexpected confidence %f", result.Confidence)
	}
	if result.Repo() != "github.com/acme/app" {
		t.Fatalf("unexpected repo %q", result.Repo())
	}
}

func TestParseIntentResultMalformedFallsBack(t *testing.T) {
	for _, content := range []string{
		"not parseable at all",
		`{"intent": "LAUNCH_ROCKET"}`,
		`{"confidence": 0.9}`,
	} {
		result := ParseIntentResult(content)
		if result.Intent != schemas.IntentQuery {
			t.Fatalf("expected query fallback for %q, got %s", content, result.Intent)
		}
		if !result.NeedsClarification {
			t.Fatalf("expected clarification for %q", content)
		}
		if result.ClarificationQuestion == "" {
			t.Fatalf("expected clarification question for %q", content)
		}
	}
}

func TestParseIntentResultClampsConfidence(t *testing.T) {
	result := ParseIntentResult(`{"intent": "query", "confidence": 7.5}`)
	if result.Confidence != 1 {
		t.Fatalf("expected clamped confidence, got %f", result.Confidence)
	}
	result = ParseIntentResult(`{"intent": "query", "confidence": -2}`)
	if result.Confidence != 0 {
		t.Fatalf("expected clamped confidence, got %f", result.Confidence)
	}
}

func TestParsePlan(t *testing.T) {
	content := `Plan below.
{
  "objective": "Add validation",
  "files": ["user_service.py"],
  "steps": [
    {"step": 1, "description": "Add helpers", "action": "create", "files": ["validators.py"]},
    {"step": 2, "description": "Wire in", "action": "modify", "files": ["user_service.py"]}
  ],
  "estimate": "25 minutes"
}`
	plan, err := ParsePlan(content)
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if plan.Objective != "Add validation" || len(plan.Steps) != 2 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestParsePlanMissingFieldsIsFormatError(t *testing.T) {
	_, err := ParsePlan(`{"objective": "x", "files": []}`)
	var formatErr *PlanFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected PlanFormatError, got %v", err)
	}

	_, err = ParsePlan("no json at all")
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected PlanFormatError, got %v", err)
	}
}

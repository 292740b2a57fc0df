package schemas

import (
	"encoding/json"
	"testing"
)

func validPlan() *Plan {
	return &Plan{
		Objective: "Add input validation",
		Files:     []string{"user_service.py", "tests/test_user_service.py"},
		Steps: []Step{
			{Seq: 1, Description: "Add validator helpers", Action: StepActionCreate, Files: []string{"validators.py"}},
			{Seq: 2, Description: "Wire validation into the service", Action: StepActionModify, Files: []string{"user_service.py"}},
			{Seq: 3, Description: "Add tests", Action: StepActionCreate, Files: []string{"tests/test_user_service.py"}},
		},
		Estimate: "30 minutes",
	}
}

func TestPlanValidateAccepts(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestPlanValidateRejectsMissingFields(t *testing.T) {
	plan := validPlan()
	plan.Objective = ""
	if err := plan.Validate(); err == nil {
		t.Fatalf("expected error for missing objective")
	}

	plan = validPlan()
	plan.Estimate = ""
	if err := plan.Validate(); err == nil {
		t.Fatalf("expected error for missing estimate")
	}

	plan = validPlan()
	plan.Steps = nil
	if err := plan.Validate(); err == nil {
		t.Fatalf("expected error for empty steps")
	}
}

func TestPlanValidateRejectsGappedSequence(t *testing.T) {
	plan := validPlan()
	plan.Steps[2].Seq = 5
	if err := plan.Validate(); err == nil {
		t.Fatalf("expected error for non-contiguous sequence")
	}
}

func TestDecodePlanRoundTrip(t *testing.T) {
	data, err := json.Marshal(validPlan())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := DecodePlan(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Objective != "Add input validation" || len(decoded.Steps) != 3 {
		t.Fatalf("unexpected plan %+v", decoded)
	}
	if decoded.Steps[1].Action != StepActionModify {
		t.Fatalf("unexpected action %s", decoded.Steps[1].Action)
	}
}

func TestDecodePlanRejectsDriftedRecord(t *testing.T) {
	if _, err := DecodePlan([]byte(`{"objective":"x"}`)); err == nil {
		t.Fatalf("expected error for incomplete stored plan")
	}
	if _, err := DecodePlan([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for corrupt stored plan")
	}
}

package schemas

import (
	"encoding/json"
	"fmt"

	z "github.com/Oudwins/zog"
)

type StepAction string

const (
	StepActionCreate StepAction = "create"
	StepActionModify StepAction = "modify"
	StepActionDelete StepAction = "delete"
)

// Step is one atomic unit of plan execution. Seq is 1-based and contiguous
// within a plan; steps are consumed in array order, never reordered.
type Step struct {
	Seq         int        `json:"step" zog:"step"`
	Description string     `json:"description" zog:"description"`
	Action      StepAction `json:"action" zog:"action"`
	Files       []string   `json:"files" zog:"files"`
}

// Plan is the immutable execution contract generated for a task before
// approval.
type Plan struct {
	Objective    string   `json:"objective" zog:"objective"`
	Files        []string `json:"files" zog:"files"`
	Steps        []Step   `json:"steps" zog:"steps"`
	Estimate     string   `json:"estimate" zog:"estimate"`
	Dependencies []string `json:"dependencies,omitempty" zog:"dependencies"`
	Notes        string   `json:"notes,omitempty" zog:"notes"`
}

var stepSchema = z.Struct(z.Shape{
	"Seq":         z.Int().Required().GTE(1),
	"Description": z.String().Required().Trim(),
	"Action": z.StringLike[StepAction]().Default(StepActionModify).OneOf([]StepAction{
		StepActionCreate, StepActionModify, StepActionDelete,
	}),
	"Files": z.Slice(z.String()).Optional(),
})

var PlanSchema = z.Struct(z.Shape{
	"Objective":    z.String().Required().Trim(),
	"Files":        z.Slice(z.String()).Required(),
	"Steps":        z.Slice(stepSchema).Required().Min(1),
	"Estimate":     z.String().Required().Trim(),
	"Dependencies": z.Slice(z.String()).Optional(),
	"Notes":        z.String().Optional(),
})

// Validate checks the structural contract a plan must honor before it can be
// executed: required fields present and sequence numbers 1..N contiguous.
func (p *Plan) Validate() error {
	if errs := PlanSchema.Validate(p); errs != nil {
		return fmt.Errorf("invalid plan: %s", z.Issues.FlattenAndCollect(errs))
	}
	for i, step := range p.Steps {
		if step.Seq != i+1 {
			return fmt.Errorf("invalid plan: step %d has sequence %d", i+1, step.Seq)
		}
	}
	return nil
}

// DecodePlan deserializes a stored plan and re-validates it. Records that no
// longer match the schema are rejected instead of trusted.
func DecodePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step        int        `json:"step"`
	Success     bool       `json:"success"`
	Action      StepAction `json:"action,omitempty"`
	FilePath    string     `json:"file_path,omitempty"`
	Content     string     `json:"content,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	Error       string     `json:"error,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty"`
}

// ExecuteResult aggregates a full execution run. Success is true only when
// every attempted step succeeded; Results is shorter than TotalSteps when
// execution halted early.
type ExecuteResult struct {
	Success        bool         `json:"success"`
	StepsCompleted int          `json:"steps_completed"`
	TotalSteps     int          `json:"total_steps"`
	Results        []StepResult `json:"results"`
}

package cli

import (
	"fmt"
	"strings"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

func renderDecision(decision *schemas.Decision) {
	if decision == nil {
		fmt.Println(styleWarn.Render("no decision returned"))
		return
	}

	switch decision.Action {
	case schemas.DecisionApprovePlan:
		fmt.Printf("%s %s\n", styleHeader.Render("Plan ready:"), styleTaskID.Render(decision.TaskID))
		renderPlan(decision.Plan)
		fmt.Printf("\n%s orch approve %s\n", styleLabel.Render("Run:"), decision.TaskID)
	case schemas.DecisionClarify:
		fmt.Printf("%s %s\n", styleWarn.Render("Need more info:"), decision.Message)
	case schemas.DecisionCannotProceed:
		fmt.Println(styleFailure.Render(decision.Message))
	case schemas.DecisionList:
		renderSummaries(decision.Tasks)
	case schemas.DecisionCompleted:
		fmt.Println(styleSuccess.Render(decision.Message))
		renderResult(decision.Result)
	case schemas.DecisionFailed:
		fmt.Println(styleFailure.Render(decision.Message))
		renderResult(decision.Result)
	default:
		fmt.Println(decision.Message)
	}
}

func renderPlan(plan *schemas.Plan) {
	if plan == nil {
		return
	}
	fmt.Printf("  %s %s\n", styleLabel.Render("Objective:"), styleValue.Render(plan.Objective))
	fmt.Printf("  %s %s\n", styleLabel.Render("Estimate: "), styleValue.Render(plan.Estimate))
	if len(plan.Files) > 0 {
		fmt.Printf("  %s %s\n", styleLabel.Render("Files:    "), styleValue.Render(strings.Join(plan.Files, ", ")))
	}
	for _, step := range plan.Steps {
		fmt.Printf("    %s %s (%s)\n",
			styleLabel.Render(fmt.Sprintf("%d.", step.Seq)),
			styleValue.Render(step.Description),
			step.Action)
	}
}

func renderSummaries(summaries []schemas.TaskSummary) {
	if len(summaries) == 0 {
		fmt.Println(styleLabel.Render("No tasks yet."))
		return
	}
	for _, summary := range summaries {
		fmt.Printf("  %s  %s  %s  %s\n",
			styleTaskID.Render(summary.ID),
			statusStyle(summary.Status).Render(string(summary.Status)),
			styleLabel.Render(summary.Progress),
			styleValue.Render(summary.Description))
	}
}

func renderResult(result *schemas.ExecuteResult) {
	if result == nil {
		return
	}
	fmt.Printf("  %s %d/%d\n", styleLabel.Render("Steps:"), result.StepsCompleted, result.TotalSteps)
	for _, stepResult := range result.Results {
		marker := styleSuccess.Render("ok")
		if !stepResult.Success {
			marker = styleFailure.Render("failed")
		}
		line := fmt.Sprintf("    %d %s", stepResult.Step, marker)
		if stepResult.FilePath != "" {
			line += " " + styleLabel.Render(stepResult.FilePath)
		}
		if stepResult.Error != "" {
			line += " " + styleFailure.Render(stepResult.Error)
		}
		fmt.Println(line)
		if stepResult.Suggestion != "" {
			fmt.Printf("      %s %s\n", styleLabel.Render("hint:"), stepResult.Suggestion)
		}
	}
}

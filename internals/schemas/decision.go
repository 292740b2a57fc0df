package schemas

type DecisionAction string

const (
	DecisionRespond       DecisionAction = "respond"
	DecisionClarify       DecisionAction = "clarify"
	DecisionCannotProceed DecisionAction = "cannot_proceed"
	DecisionApprovePlan   DecisionAction = "approve_plan"
	DecisionList          DecisionAction = "list"
	DecisionCompleted     DecisionAction = "completed"
	DecisionFailed        DecisionAction = "failed"
)

// Decision is what the orchestrator hands back to the transport layer for
// rendering. Exactly one of Plan/Tasks/Result is set depending on Action.
type Decision struct {
	Action  DecisionAction `json:"action"`
	Message string         `json:"message,omitempty"`
	TaskID  string         `json:"taskId,omitempty"`
	Plan    *Plan          `json:"plan,omitempty"`
	Tasks   []TaskSummary  `json:"tasks,omitempty"`
	Result  *ExecuteResult `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

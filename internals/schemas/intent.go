package schemas

type Intent string

const (
	IntentQuery    Intent = "query"
	IntentTaskNew  Intent = "task_new"
	IntentContinue Intent = "task_continue"
	IntentTaskList Intent = "task_list"
	IntentAbort    Intent = "task_abort"
)

// IntentResult is the classifier output. Confidence is in [0,1]. When the
// classifier cannot produce a usable answer it reports a low-confidence query
// with NeedsClarification set instead of an error.
type IntentResult struct {
	Intent                Intent            `json:"intent"`
	Confidence            float64           `json:"confidence"`
	NeedsClarification    bool              `json:"needs_clarification"`
	ClarificationQuestion string            `json:"clarification_question,omitempty"`
	ExtractedInfo         map[string]string `json:"extracted_info,omitempty"`
}

// Repo returns the repository reference extracted by the classifier, if any.
func (r IntentResult) Repo() string {
	return r.ExtractedInfo["repo"]
}

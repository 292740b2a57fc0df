package agents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

const classifierSystemPrompt = `You are an intent classifier for a development task orchestration system.

Analyze the user's message and classify its intent into one of these categories:

- QUERY: the user asks a question (does not want a task executed)
- TASK_NEW: the user wants to create a new development task
- TASK_CONTINUE: the user continues or adds information to an existing task
- TASK_LIST: the user wants to see their tasks
- TASK_ABORT: the user wants to cancel a task

ALWAYS answer with JSON of this shape:
{
    "intent": "TASK_NEW",
    "confidence": 0.95,
    "needs_clarification": false,
    "clarification_question": null,
    "extracted_info": {
        "repo": "https://github.com/...",
        "description": "...",
        "task_type": "feature"
    }
}

If the message is ambiguous or critical information is missing (such as the
repository for TASK_NEW), set needs_clarification=true and provide a specific
question.`

const fallbackClarification = "I could not understand your request. Can you rephrase it?"

type AnthropicClassifier struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

func NewAnthropicClassifier(apiKey, model string, logger *slog.Logger) *AnthropicClassifier {
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

var _ Classifier = (*AnthropicClassifier)(nil)

func (c *AnthropicClassifier) Classify(ctx context.Context, message string) schemas.IntentResult {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 500,
		System:    []anthropic.TextBlockParam{{Text: classifierSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		c.logger.Error("Intent classification call failed", slog.String("error", err.Error()))
		return schemas.IntentResult{
			Intent:                schemas.IntentQuery,
			Confidence:            0,
			NeedsClarification:    true,
			ClarificationQuestion: "There was an error processing your message. Can you rephrase it?",
		}
	}

	result := ParseIntentResult(messageText(msg))
	c.logger.Info("Intent classified",
		slog.String("intent", string(result.Intent)),
		slog.Float64("confidence", result.Confidence))
	return result
}

// ParseIntentResult parses the classifier's raw output. Malformed output is
// absorbed into a low-confidence query with a clarification question.
func ParseIntentResult(content string) schemas.IntentResult {
	raw, ok := ExtractJSON(content)
	if !ok {
		return schemas.IntentResult{
			Intent:                schemas.IntentQuery,
			Confidence:            0.5,
			NeedsClarification:    true,
			ClarificationQuestion: fallbackClarification,
		}
	}

	parsed := gjson.Parse(raw)
	intent, ok := intentFromLabel(parsed.Get("intent").String())
	if !ok {
		return schemas.IntentResult{
			Intent:                schemas.IntentQuery,
			Confidence:            0.5,
			NeedsClarification:    true,
			ClarificationQuestion: fallbackClarification,
		}
	}

	confidence := 0.8
	if value := parsed.Get("confidence"); value.Exists() {
		confidence = value.Float()
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	extracted := map[string]string{}
	parsed.Get("extracted_info").ForEach(func(key, value gjson.Result) bool {
		extracted[key.String()] = value.String()
		return true
	})

	return schemas.IntentResult{
		Intent:                intent,
		Confidence:            confidence,
		NeedsClarification:    parsed.Get("needs_clarification").Bool(),
		ClarificationQuestion: parsed.Get("clarification_question").String(),
		ExtractedInfo:         extracted,
	}
}

func intentFromLabel(label string) (schemas.Intent, bool) {
	switch schemas.Intent(strings.ToLower(strings.TrimSpace(label))) {
	case schemas.IntentQuery:
		return schemas.IntentQuery, true
	case schemas.IntentTaskNew:
		return schemas.IntentTaskNew, true
	case schemas.IntentContinue:
		return schemas.IntentContinue, true
	case schemas.IntentTaskList:
		return schemas.IntentTaskList, true
	case schemas.IntentAbort:
		return schemas.IntentAbort, true
	}
	return "", false
}

func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(variant.Text)
		}
	}
	return sb.String()
}

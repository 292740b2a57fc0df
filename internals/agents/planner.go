package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

const plannerSystemPrompt = `You are an expert software architect that generates execution plans for development tasks.

Given a task description and repository context, produce a detailed, executable plan.

The plan must include:
1. A clear, concise objective
2. The list of files to create/modify
3. Specific, atomic steps
4. A time estimate
5. Dependencies (when applicable)

ALWAYS answer with JSON:
{
    "objective": "Clear description of the objective",
    "files": ["src/file1.py", "tests/test_file1.py"],
    "steps": [
        {
            "step": 1,
            "description": "Step description",
            "files": ["src/file1.py"],
            "action": "create|modify|delete"
        }
    ],
    "estimate": "X minutes",
    "dependencies": [],
    "notes": "Additional considerations"
}

Every step must be:
- Atomic (a single action)
- Verifiable (completion can be confirmed)
- Ordered by dependency

Do not assume access to external tooling beyond git, the project language and basic shell commands.`

// PlanFormatError reports a structurally invalid plan from the model. It is
// a hard failure; the caller has to regenerate.
type PlanFormatError struct {
	Reason string
}

func (e *PlanFormatError) Error() string {
	return "invalid plan format: " + e.Reason
}

type AnthropicPlanner struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

func NewAnthropicPlanner(apiKey, model string, logger *slog.Logger) *AnthropicPlanner {
	return &AnthropicPlanner{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

var _ Planner = (*AnthropicPlanner)(nil)

func (p *AnthropicPlanner) GeneratePlan(ctx context.Context, description, repoURL string, extra map[string]string) (*schemas.Plan, error) {
	var sb strings.Builder
	sb.WriteString("**Requested task:**\n")
	sb.WriteString(description)
	if repoURL != "" {
		sb.WriteString("\n\n**Repository:** ")
		sb.WriteString(repoURL)
	}
	if len(extra) > 0 {
		contextJSON, err := json.MarshalIndent(extra, "", "  ")
		if err == nil {
			sb.WriteString("\n\n**Additional context:**\n```json\n")
			sb.Write(contextJSON)
			sb.WriteString("\n```")
		}
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2000,
		System:    []anthropic.TextBlockParam{{Text: plannerSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(sb.String())),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan, err := ParsePlan(messageText(msg))
	if err != nil {
		return nil, err
	}

	p.logger.Info("Plan generated",
		slog.Int("steps", len(plan.Steps)),
		slog.String("estimate", plan.Estimate))
	return plan, nil
}

// ParsePlan parses and validates the planner's raw output.
func ParsePlan(content string) (*schemas.Plan, error) {
	raw, ok := ExtractJSON(content)
	if !ok {
		return nil, &PlanFormatError{Reason: "no JSON found in response"}
	}
	plan, err := schemas.DecodePlan([]byte(raw))
	if err != nil {
		return nil, &PlanFormatError{Reason: err.Error()}
	}
	return plan, nil
}

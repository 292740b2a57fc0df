package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const runnerSystemPrompt = `You are an expert developer executing programming tasks.

Given one specific step of a plan, generate the code or changes it requires.

Rules:
1. Generate clean, idiomatic, well documented code
2. Follow the conventions of the existing project
3. Include proper error handling
4. When modifying a file, output the complete resulting file content

Answer with JSON:
{
    "success": true,
    "action": "create|modify|delete",
    "file_path": "src/example.py",
    "content": "# Complete file content...",
    "explanation": "Brief explanation of the changes"
}

On an error, or when the step cannot be completed:
{
    "success": false,
    "error": "Description of the problem",
    "suggestion": "Suggestion to resolve it"
}`

// GeminiRunner executes plan steps against a Gemini model.
type GeminiRunner struct {
	client *genai.Client
	model  string
}

func NewGeminiRunner(ctx context.Context, apiKey, model string) (*GeminiRunner, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiRunner{client: client, model: model}, nil
}

var _ StepRunner = (*GeminiRunner)(nil)

func (r *GeminiRunner) ExecuteStep(ctx context.Context, stepCtx StepContext) (string, error) {
	contextJSON, err := json.MarshalIndent(stepCtx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode step context: %w", err)
	}

	prompt := fmt.Sprintf(`Execute the following development step:

**Step %d:** %s

**Task context:**
%s

Generate the code or changes required.`,
		stepCtx.CurrentStep.Seq, stepCtx.CurrentStep.Description, contextJSON)

	model := r.client.GenerativeModel(r.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(runnerSystemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("step execution call failed: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String(), nil
}

func (r *GeminiRunner) Close() error {
	return r.client.Close()
}

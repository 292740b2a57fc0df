package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	z "github.com/Oudwins/zog"

	"github.com/victorvelazquez/dev-orchestrator/internals/version"
)

type Config struct {
	Version   string          `json:"-"`
	Server    ServerConfig    `json:"server"`
	Workspace WorkspaceConfig `json:"workspace"`
	Tasks     TasksConfig     `json:"tasks"`
	Agents    AgentsConfig    `json:"agents"`
	Git       GitConfig       `json:"git"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir"`
}

type WorkspaceConfig struct {
	Dir string `json:"dir"`
}

type TasksConfig struct {
	MaxClarificationRounds int    `json:"max_clarification_rounds"`
	ListPageSize           int    `json:"list_page_size"`
	StepTimeout            string `json:"step_timeout"`
	WorkerLimit            int    `json:"worker_limit"`
}

type AgentsConfig struct {
	ClassifierModel string `json:"classifier_model"`
	PlannerModel    string `json:"planner_model"`
	ExecutorModel   string `json:"executor_model"`
}

type GitConfig struct {
	ProtectedBranches []string `json:"protected_branches"`
	DefaultBaseBranch string   `json:"default_base_branch"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.dev-orchestrator").Transform(expandPathTransform),
})

var workspaceSchema = z.Struct(z.Shape{
	"Dir": z.String().Default("~/.dev-orchestrator/workspace").Transform(expandPathTransform),
})

var tasksSchema = z.Struct(z.Shape{
	"MaxClarificationRounds": z.Int().Default(10).GTE(1),
	"ListPageSize":           z.Int().Default(10).GTE(1),
	"StepTimeout":            z.String().Default("5m"),
	"WorkerLimit":            z.Int().Default(4).GTE(1),
})

var agentsSchema = z.Struct(z.Shape{
	"ClassifierModel": z.String().Default("claude-sonnet-4-20250514"),
	"PlannerModel":    z.String().Default("claude-sonnet-4-20250514"),
	"ExecutorModel":   z.String().Default("gemini-2.0-flash"),
})

var gitSchema = z.Struct(z.Shape{
	"ProtectedBranches": z.Slice(z.String()).Default([]string{"main", "master", "develop", "development"}),
	"DefaultBaseBranch": z.String().Default("main"),
})

var ConfigSchema = z.Struct(z.Shape{
	"server":    serverSchema,
	"workspace": workspaceSchema,
	"tasks":     tasksSchema,
	"agents":    agentsSchema,
	"git":       gitSchema,
})

var config *Config

func GetConfig() *Config {

	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Orchestrator] Failed to parse config", err)
		}
		defaults.Version = version.Version()

		dataDir, err := expandPath(defaults.Server.DataDir)
		if err != nil {
			log.Fatal("[Orchestrator] Failed to expand config data dir", err)
		}

		configPath := filepath.Join(filepath.Clean(dataDir), "orchestrator.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Orchestrator] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Orchestrator] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Orchestrator] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

// StepTimeoutDuration parses the configured per-step ceiling, falling back to
// five minutes on a malformed value.
func (c *Config) StepTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Tasks.StepTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptConfig overrides parts of the analysis prompt. Empty fields keep the built-in values.
type PromptConfig struct {
	Instruction       string   `yaml:"instruction"`
	FormatInstruction string   `yaml:"format_instruction"`
	Temperature       *float32 `yaml:"temperature"`
	MaxOutputTokens   int32    `yaml:"max_output_tokens"`
}

// LoadPromptFile reads a YAML prompt override. An empty path returns an empty config.
func LoadPromptFile(path string) (*PromptConfig, error) {
	if strings.TrimSpace(path) == "" {
		return &PromptConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var pc PromptConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	if pc.Temperature != nil && (*pc.Temperature < 0 || *pc.Temperature > 2) {
		return nil, fmt.Errorf("temperature must be within [0, 2] (got %v)", *pc.Temperature)
	}
	if pc.MaxOutputTokens < 0 {
		return nil, fmt.Errorf("max_output_tokens must be >= 0 (got %d)", pc.MaxOutputTokens)
	}

	pc.Instruction = strings.TrimSpace(pc.Instruction)
	pc.FormatInstruction = strings.TrimSpace(pc.FormatInstruction)
	return &pc, nil
}

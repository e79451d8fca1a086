package analyzer

import (
	"time"

	"go-ultrasound-inspector/internal/config"
)

// AnalysisOptions configures how an image is sent to the model and how the answer is read back
type AnalysisOptions struct {
	// Prompt
	Instruction       string
	FormatInstruction string

	// Generation
	Temperature     *float32
	MaxOutputTokens int32

	// Bounds the single provider call
	Timeout time.Duration

	// Longest side sent to the model; 0 sends the image as uploaded
	MaxImageDimension int

	// Only accept exact section labels in the model answer
	StrictExtraction bool
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Instruction:       DefaultInstruction,
		FormatInstruction: DefaultFormatInstruction,
		Timeout:           60 * time.Second,
		MaxImageDimension: 2048,
		StrictExtraction:  false,
	}
}

// FromConfig builds options from the service configuration and an optional prompt override
func FromConfig(cfg *config.Config, prompt *config.PromptConfig) AnalysisOptions {
	opts := DefaultOptions()
	if cfg != nil {
		opts = opts.WithTimeout(cfg.AnalysisTimeout).WithMaxImageDimension(cfg.MaxImageDimension)
	}
	return opts.WithPrompt(prompt)
}

// WithPrompt applies non-empty fields of a prompt override
func (opts AnalysisOptions) WithPrompt(prompt *config.PromptConfig) AnalysisOptions {
	if prompt == nil {
		return opts
	}
	if prompt.Instruction != "" {
		opts.Instruction = prompt.Instruction
	}
	if prompt.FormatInstruction != "" {
		opts.FormatInstruction = prompt.FormatInstruction
	}
	if prompt.Temperature != nil {
		t := *prompt.Temperature
		opts.Temperature = &t
	}
	if prompt.MaxOutputTokens > 0 {
		opts.MaxOutputTokens = prompt.MaxOutputTokens
	}
	return opts
}

// WithTimeout sets the provider call deadline. Non-positive values are ignored.
func (opts AnalysisOptions) WithTimeout(timeout time.Duration) AnalysisOptions {
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return opts
}

// WithMaxImageDimension sets the downscale threshold, 0 disables downscaling
func (opts AnalysisOptions) WithMaxImageDimension(maxDim int) AnalysisOptions {
	if maxDim >= 0 {
		opts.MaxImageDimension = maxDim
	}
	return opts
}

// WithStrictExtraction disables lenient label matching
func (opts AnalysisOptions) WithStrictExtraction() AnalysisOptions {
	opts.StrictExtraction = true
	return opts
}

// Prompt returns the full text sent alongside the image
func (opts AnalysisOptions) Prompt() string {
	if opts.FormatInstruction == "" {
		return opts.Instruction
	}
	return opts.Instruction + "\n\n" + opts.FormatInstruction
}

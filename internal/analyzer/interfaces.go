package analyzer

import "context"

// Analyzer sends one validated image to a vision model and returns the extracted result
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (*Output, error)
}

package models

import "time"

// AnalysisResult holds the three display fields extracted from the model reply
type AnalysisResult struct {
	Findings       string `json:"findings"`
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

// IsEmpty reports whether no field carries any text
func (r *AnalysisResult) IsEmpty() bool {
	return r == nil || (r.Findings == "" && r.Summary == "" && r.Recommendation == "")
}

// ImageMetadata describes a validated upload
type ImageMetadata struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Analysis is the outcome of one pipeline run
type Analysis struct {
	RequestID         string         `json:"request_id"`
	Timestamp         time.Time      `json:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	Provider          string         `json:"provider"`
	Model             string         `json:"model"`
	Image             ImageMetadata  `json:"image"`
	Result            AnalysisResult `json:"result"`
	// Raw model text; archived but never sent to clients
	RawResponse       string         `json:"-"`
}

package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// AnalysisResponse is the JSON body returned by the API analyze route
type AnalysisResponse struct {
	RequestID         string         `json:"request_id"`
	Timestamp         string         `json:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	Provider          string         `json:"provider"`
	Model             string         `json:"model"`
	Image             ImageMetadata  `json:"image"`
	Result            AnalysisResult `json:"result"`
}

// NewAnalysisResponse converts a pipeline outcome to its wire form
func NewAnalysisResponse(a *Analysis) *AnalysisResponse {
	return &AnalysisResponse{
		RequestID:         a.RequestID,
		Timestamp:         a.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		ProcessingTimeSec: a.ProcessingTimeSec,
		Provider:          a.Provider,
		Model:             a.Model,
		Image:             a.Image,
		Result:            a.Result,
	}
}

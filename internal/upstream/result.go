package upstream

import "strings"

// Outcome classifies the result of a write against the backend. The
// legacy API signals results through free-text message strings; this is
// the one place that convention is interpreted, so the rest of the
// codebase can branch on a tag instead of substring checks.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeUnknown          Outcome = "unknown"
)

// WriteResult is the structured result of a write request.
type WriteResult struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
	ID      int     `json:"id,omitempty"`
}

// writeResponse is the raw wire shape of a backend write response.
type writeResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}

// ClassifyMessage maps a backend message string onto an Outcome.
func ClassifyMessage(message string) Outcome {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "successfully"):
		return OutcomeSuccess
	case strings.Contains(lower, "already exists"):
		return OutcomeDuplicate
	case strings.Contains(lower, "required"), strings.Contains(lower, "invalid"):
		return OutcomeValidationFailed
	default:
		return OutcomeUnknown
	}
}

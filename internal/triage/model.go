package triage

import "time"

// Status tracks where a triage run is in its lifecycle.
type Status string

const (
	// StatusPending means created, not yet started
	StatusPending Status = "pending"

	// StatusInProgress means currently being processed
	StatusInProgress Status = "in_progress"

	// StatusComplete means finished successfully
	StatusComplete Status = "complete"

	// StatusFailed means finished with errors
	StatusFailed Status = "failed"
)

// Outcome is the triage decision for a message.
type Outcome string

const (
	// OutcomeNo means the email needs no response and no attention.
	OutcomeNo Outcome = "no"

	// OutcomeEmail means the user should respond via email.
	OutcomeEmail Outcome = "email"

	// OutcomeNotify means the user should see this but no response is needed.
	OutcomeNotify Outcome = "notify"

	// OutcomeQuestion means the assistant needs clarification from the user.
	OutcomeQuestion Outcome = "question"
)

// Valid reports whether o is one of the four defined outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeNo, OutcomeEmail, OutcomeNotify, OutcomeQuestion:
		return true
	}
	return false
}

// Result is the outcome of a triage run.
type Result struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Status      Status    `json:"status"`
	From        string    `json:"from"`
	To          []string  `json:"to,omitempty"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body,omitempty"`
	Outcome     Outcome   `json:"outcome,omitempty"`
	Logic       string    `json:"logic,omitempty"`
	Error       string    `json:"error,omitempty"`
	Draft       string    `json:"draft,omitempty"`
	DraftAction string    `json:"draft_action,omitempty"`
	Prompt      string    `json:"-"` // assembled triage prompt, persisted for audit but not served
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Duration    float64   `json:"duration_seconds,omitempty"`
	TokensIn    int       `json:"tokens_in,omitempty"`
	TokensOut   int       `json:"tokens_out,omitempty"`
}

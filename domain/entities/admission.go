package entities

// AdmissionReason explains the outcome of a round creation check
type AdmissionReason string

const (
	AdmissionCreated            AdmissionReason = "created"
	AdmissionActiveRoundExists  AdmissionReason = "active_round_exists"
	AdmissionLastRoundTooRecent AdmissionReason = "last_round_too_recent"
	AdmissionActiveCapReached   AdmissionReason = "active_cap_reached"
	AdmissionNoCandidates       AdmissionReason = "no_candidates"
	AdmissionDue                AdmissionReason = "due"
)

// RoundAdmission is the result of a check-and-create call. RoundID is set when
// a round was created.
type RoundAdmission struct {
	Created bool            `json:"created"`
	Reason  AdmissionReason `json:"reason"`
	RoundID int64           `json:"round_id,omitempty"`
}

// SettlementReport summarizes one settle-due-rounds pass
type SettlementReport struct {
	Settled   int `json:"settled"`
	Skipped   int `json:"skipped"`
	Recovered int `json:"recovered"`
	Failed    int `json:"failed"`
	Paid      int `json:"paid"`
}

// HotPotatoReport summarizes one hot potato resolution pass
type HotPotatoReport struct {
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

package dashboard

// Risk score thresholds. A score above ReviewThreshold needs review, a score
// above SuspiciousThreshold is treated as fake.
const (
	ReviewThreshold     = 40
	SuspiciousThreshold = 70
)

type Status string

const (
	StatusSafe       Status = "Safe"
	StatusReview     Status = "Review Required"
	StatusSuspicious Status = "Fake/Suspicious"
)

type Action string

const (
	ActionImmediateReview Action = "Immediate Review"
	ActionVerifyDetails   Action = "Verify Details"
	ActionRoutine         Action = "Routine"
)

// StatusOf maps a risk score onto its status tier.
func StatusOf(score float64) Status {
	switch {
	case score > SuspiciousThreshold:
		return StatusSuspicious
	case score > ReviewThreshold:
		return StatusReview
	default:
		return StatusSafe
	}
}

// ActionOf returns the analyst guidance for a risk score. It uses the same
// thresholds as StatusOf.
func ActionOf(score float64) Action {
	switch StatusOf(score) {
	case StatusSuspicious:
		return ActionImmediateReview
	case StatusReview:
		return ActionVerifyDetails
	default:
		return ActionRoutine
	}
}

// Class is the CSS modifier used by the status badge.
func (s Status) Class() string {
	switch s {
	case StatusSuspicious:
		return "danger"
	case StatusReview:
		return "warning"
	default:
		return "success"
	}
}

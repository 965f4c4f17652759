package domain

// Flag is one reason the scoring backend attached to a transaction.
type Flag struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// Transaction is a single financial event under analyst review, as returned
// by GET /transactions.
type Transaction struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Timestamp string   `json:"timestamp"`
	Amount    float64  `json:"amount"`
	City      string   `json:"city,omitempty"`
	Category  string   `json:"category,omitempty"`
	RiskScore *float64 `json:"riskScore,omitempty"`
	Status    string   `json:"status,omitempty"`

	// Legacy single-flag fields, used only when Flags is empty
	FlagType   string `json:"flag_type,omitempty"`
	FlagReason string `json:"flag_reason,omitempty"`

	Flags []Flag `json:"flags,omitempty"`
}

// Score returns the risk score, or 0 when the backend omitted it.
func (t Transaction) Score() float64 {
	if t.RiskScore == nil {
		return 0
	}
	return *t.RiskScore
}

// ClearResult is the body of POST /transactions/clear.
type ClearResult struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// UploadResult is the body of POST /upload.
type UploadResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RowsProcessed int    `json:"rowsProcessed"`
}

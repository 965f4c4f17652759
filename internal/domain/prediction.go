package domain

// PredictionRequest is one transaction sent for on-demand scoring.
type PredictionRequest struct {
	Timestamp string  `json:"timestamp" binding:"required"`
	Amount    float64 `json:"amount"`
	UserID    string  `json:"user_id" binding:"required"`
	City      string  `json:"city"`
	Category  string  `json:"category"`
}

// Prediction is the backend's verdict for a PredictionRequest.
type Prediction struct {
	IsFraud   bool    `json:"is_fraud"`
	RiskScore float64 `json:"risk_score"`
	Status    string  `json:"status"`
}

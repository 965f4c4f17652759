package domain

// TrendPoint is one day of the fraud trend chart.
type TrendPoint struct {
	Date       string `json:"date"`
	FraudCount int    `json:"fraudCount"`
	SafeCount  int    `json:"safeCount"`
}

// DistributionSlice is one status bucket of the risk distribution chart.
type DistributionSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// FraudMetrics is the body of GET /dashboard/metrics.
type FraudMetrics struct {
	TotalTransactions   int                 `json:"totalTransactions"`
	FlaggedTransactions int                 `json:"flaggedTransactions"`
	OverallRiskScore    float64             `json:"overallRiskScore"`
	FraudTrend          []TrendPoint        `json:"fraudTrend"`
	RiskDistribution    []DistributionSlice `json:"riskDistribution"`
}

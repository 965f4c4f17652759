package dashboard

import (
	"math"
	"strings"

	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/flags"

	"github.com/shopspring/decimal"
)

// Row is one rendered table line.
type Row struct {
	ID          string        `json:"id"`
	Timestamp   string        `json:"timestamp"`
	UserID      string        `json:"user_id"`
	Location    string        `json:"location,omitempty"`
	Category    string        `json:"category,omitempty"`
	Amount      string        `json:"amount"`
	RiskPercent int           `json:"risk_percent"`
	Status      Status        `json:"status"`
	StatusClass string        `json:"status_class"`
	Badges      []flags.Badge `json:"flags"`
	Action      Action        `json:"action"`
}

// BuildRow renders one transaction.
func BuildRow(t *domain.Transaction) Row {
	score := t.Score()
	status := StatusOf(score)

	var badges []flags.Badge
	for _, f := range EffectiveFlags(t) {
		if b, ok := flags.Classify(f.Type, f.Reason); ok {
			badges = append(badges, b)
		}
	}

	return Row{
		ID:          t.ID,
		Timestamp:   t.Timestamp,
		UserID:      t.UserID,
		Location:    t.City,
		Category:    t.Category,
		Amount:      FormatCurrency(t.Amount),
		RiskPercent: riskPercent(score),
		Status:      status,
		StatusClass: status.Class(),
		Badges:      badges,
		Action:      ActionOf(score),
	}
}

// BuildRows renders txs in order.
func BuildRows(txs []domain.Transaction) []Row {
	rows := make([]Row, len(txs))
	for i := range txs {
		rows[i] = BuildRow(&txs[i])
	}
	return rows
}

func riskPercent(score float64) int {
	p := int(math.Round(score))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FormatCurrency renders an amount as "$1,234.50".
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

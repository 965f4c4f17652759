package flags

import "strings"

// Severity is the display emphasis of a flag badge
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityNormal   Severity = "normal"
)

// Category drives the badge icon only
type Category string

const (
	CategoryVelocity  Category = "Velocity"
	CategoryAmount    Category = "Amount"
	CategoryLocation  Category = "Location"
	CategoryFrequency Category = "Frequency"
	CategoryCategory  Category = "Category"
	CategoryModel     Category = "Model"
	CategoryOther     Category = "Other"
)

// criticalTriggers are matched against lowercase(type + reason).
var criticalTriggers = []string{
	"mismatch",
	"unusual",
	"high velocity",
	"suspicious",
	"multiple",
	"fraud",
	"high risk",
	"device",
}

type categoryRule struct {
	needles  []string
	category Category
}

// Order matters: the first matching rule wins.
var categoryRules = []categoryRule{
	{needles: []string{"velocity"}, category: CategoryVelocity},
	{needles: []string{"amount", "value"}, category: CategoryAmount},
	{needles: []string{"location"}, category: CategoryLocation},
	{needles: []string{"frequency"}, category: CategoryFrequency},
	{needles: []string{"category"}, category: CategoryCategory},
	{needles: []string{"model", "anomaly"}, category: CategoryModel},
}

// Badge is everything the view needs to render one flag.
type Badge struct {
	Type     string   `json:"type"`
	Reason   string   `json:"reason,omitempty"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Tooltip  string   `json:"tooltip"`
}

// Critical reports whether the badge should be rendered with emphasis.
func (b Badge) Critical() bool {
	return b.Severity == SeverityCritical
}

// Classify builds the badge for a flag. ok is false when flagType is empty,
// which means the transaction shows no badge at all.
func Classify(flagType, reason string) (Badge, bool) {
	if flagType == "" {
		return Badge{}, false
	}

	tooltip := flagType
	if reason != "" {
		tooltip = flagType + ": " + reason
	}

	return Badge{
		Type:     flagType,
		Reason:   reason,
		Severity: SeverityOf(flagType, reason),
		Category: CategoryOf(flagType),
		Tooltip:  tooltip,
	}, true
}

// SeverityOf returns critical iff the lowercased concatenation of flagType and
// reason contains one of the trigger phrases.
func SeverityOf(flagType, reason string) Severity {
	text := strings.ToLower(flagType + reason)
	for _, trigger := range criticalTriggers {
		if strings.Contains(text, trigger) {
			return SeverityCritical
		}
	}
	return SeverityNormal
}

// CategoryOf matches flagType case-insensitively against the ordered rules.
func CategoryOf(flagType string) Category {
	t := strings.ToLower(flagType)
	for _, rule := range categoryRules {
		for _, needle := range rule.needles {
			if strings.Contains(t, needle) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// Triggers returns a copy of the critical trigger phrases.
func Triggers() []string {
	out := make([]string, len(criticalTriggers))
	copy(out, criticalTriggers)
	return out
}

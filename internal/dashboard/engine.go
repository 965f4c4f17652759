package dashboard

import (
	"cmp"
	"errors"
	"sort"
	"strings"
	"sync"

	"anomalyse_dashboard/internal/domain"
)

var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey names a sortable column.
type SortKey string

const (
	SortByID        SortKey = "id"
	SortByTimestamp SortKey = "timestamp"
	SortByUser      SortKey = "user_id"
	SortByCity      SortKey = "city"
	SortByCategory  SortKey = "category"
	SortByAmount    SortKey = "amount"
	SortByRiskScore SortKey = "riskScore"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is an optional sort request. The zero value means "keep input order".
type SortSpec struct {
	Key       SortKey
	Direction Direction
}

// Active reports whether a sort was requested.
func (s SortSpec) Active() bool {
	return s.Key != ""
}

// Criteria are the view-state inputs of Apply.
type Criteria struct {
	Search   string
	Reason   string
	FlagType string
	Sort     SortSpec
}

// comparator compares a and b at one column. aOK/bOK report whether the value
// is present; missing values always sort last regardless of direction.
type comparator func(a, b *domain.Transaction) (c int, aOK, bOK bool)

func stringColumn(get func(*domain.Transaction) string) comparator {
	return func(a, b *domain.Transaction) (int, bool, bool) {
		av, bv := get(a), get(b)
		return strings.Compare(av, bv), av != "", bv != ""
	}
}

func numberColumn(get func(*domain.Transaction) (float64, bool)) comparator {
	return func(a, b *domain.Transaction) (int, bool, bool) {
		av, aOK := get(a)
		bv, bOK := get(b)
		return cmp.Compare(av, bv), aOK, bOK
	}
}

var comparators = map[SortKey]comparator{
	SortByID:        stringColumn(func(t *domain.Transaction) string { return t.ID }),
	SortByTimestamp: stringColumn(func(t *domain.Transaction) string { return t.Timestamp }),
	SortByUser:      stringColumn(func(t *domain.Transaction) string { return t.UserID }),
	SortByCity:      stringColumn(func(t *domain.Transaction) string { return t.City }),
	SortByCategory:  stringColumn(func(t *domain.Transaction) string { return t.Category }),
	SortByAmount: numberColumn(func(t *domain.Transaction) (float64, bool) {
		return t.Amount, true
	}),
	SortByRiskScore: numberColumn(func(t *domain.Transaction) (float64, bool) {
		if t.RiskScore == nil {
			return 0, false
		}
		return *t.RiskScore, true
	}),
}

// ParseSortKey validates a column name coming from a request.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(s)
	if _, ok := comparators[k]; !ok {
		return "", ErrUnknownSortKey
	}
	return k, nil
}

// ParseDirection maps anything other than "desc" to ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// SortKeys lists every sortable column.
func SortKeys() []SortKey {
	return []SortKey{SortByID, SortByTimestamp, SortByUser, SortByCity, SortByCategory, SortByAmount, SortByRiskScore}
}

// Compare orders a and b for the given spec. Unknown keys compare equal.
func Compare(a, b *domain.Transaction, spec SortSpec) int {
	compareFn, ok := comparators[spec.Key]
	if !ok {
		return 0
	}
	c, aOK, bOK := compareFn(a, b)
	switch {
	case !aOK && !bOK:
		return 0
	case !aOK:
		return 1
	case !bOK:
		return -1
	}
	if spec.Direction == Desc {
		return -c
	}
	return c
}

// EffectiveFlags returns the flags used for filtering and badges: Flags when
// non-empty, otherwise the legacy flag_type/flag_reason pair as one flag.
func EffectiveFlags(t *domain.Transaction) []domain.Flag {
	if len(t.Flags) > 0 {
		return t.Flags
	}
	if t.FlagType == "" && t.FlagReason == "" {
		return nil
	}
	return []domain.Flag{{Type: t.FlagType, Reason: t.FlagReason}}
}

// Matches reports whether t passes every filter in c.
func Matches(t *domain.Transaction, c Criteria) bool {
	if c.Search != "" {
		q := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(t.ID), q) && !strings.Contains(strings.ToLower(t.UserID), q) {
			return false
		}
	}
	if c.Reason == "" && c.FlagType == "" {
		return true
	}

	fl := EffectiveFlags(t)
	if c.Reason != "" && !anyFlag(fl, func(f domain.Flag) bool { return f.Reason == c.Reason }) {
		return false
	}
	if c.FlagType != "" && !anyFlag(fl, func(f domain.Flag) bool { return f.Type == c.FlagType }) {
		return false
	}
	return true
}

func anyFlag(fl []domain.Flag, pred func(domain.Flag) bool) bool {
	for _, f := range fl {
		if pred(f) {
			return true
		}
	}
	return false
}

// Apply filters txs by c and, when c.Sort is active, stable-sorts the result.
// txs is never modified.
func Apply(txs []domain.Transaction, c Criteria) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for i := range txs {
		if Matches(&txs[i], c) {
			out = append(out, txs[i])
		}
	}

	if c.Sort.Active() {
		sort.SliceStable(out, func(i, j int) bool {
			return Compare(&out[i], &out[j], c.Sort) < 0
		})
	}
	return out
}

// Engine memoizes Apply for repeated identical inputs. The list is identified
// by a generation number that the owner bumps every time it replaces the list.
type Engine struct {
	mu       sync.Mutex
	valid    bool
	gen      uint64
	criteria Criteria
	result   []domain.Transaction
}

// View returns Apply(txs, c), reusing the last result when gen and c are
// unchanged. The returned slice must be treated as read-only.
func (e *Engine) View(gen uint64, txs []domain.Transaction, c Criteria) []domain.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && e.gen == gen && e.criteria == c {
		return e.result
	}

	e.result = Apply(txs, c)
	e.gen = gen
	e.criteria = c
	e.valid = true
	return e.result
}

// ReasonOptions lists the distinct flag reasons for the reason dropdown.
func ReasonOptions(txs []domain.Transaction) []string {
	return distinctFlagValues(txs, func(f domain.Flag) string { return f.Reason })
}

// FlagTypeOptions lists the distinct flag types for the flag-type dropdown.
func FlagTypeOptions(txs []domain.Transaction) []string {
	return distinctFlagValues(txs, func(f domain.Flag) string { return f.Type })
}

func distinctFlagValues(txs []domain.Transaction, get func(domain.Flag) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range txs {
		for _, f := range EffectiveFlags(&txs[i]) {
			v := get(f)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"anomalyse_dashboard/internal/dashboard"
	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/logger"
)

var ErrBusy = errors.New("a clear request is already in progress")

// Gateway is the part of the backend client the view needs.
type Gateway interface {
	FetchTransactions(ctx context.Context) ([]domain.Transaction, error)
	ClearTransactions(ctx context.Context) (*domain.ClearResult, error)
	Upload(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error)
}

type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is the status line above the table.
type Banner struct {
	Kind    BannerKind `json:"kind"`
	Message string     `json:"message"`
}

// Snapshot is everything a page render needs, computed under one lock.
type Snapshot struct {
	Rows          []dashboard.Row    `json:"rows"`
	Total         int                `json:"total"`
	Shown         int                `json:"shown"`
	Loading       bool               `json:"loading"`
	Busy          bool               `json:"busy"`
	Banner        *Banner            `json:"banner,omitempty"`
	Criteria      dashboard.Criteria `json:"-"`
	ReasonOptions []string           `json:"reason_options"`
	TypeOptions   []string           `json:"flag_type_options"`
}

// Dashboard is one analyst's view: the authoritative transaction list and the
// filter/sort selections applied to it.
type Dashboard struct {
	gw Gateway

	mu       sync.Mutex
	txs      []domain.Transaction
	gen      uint64
	mounted  bool
	loading  bool
	busy     bool
	banner   *Banner
	search   string
	reason   string
	flagType string
	sort     dashboard.SortState
	engine   dashboard.Engine
}

func NewDashboard(gw Gateway) *Dashboard {
	return &Dashboard{gw: gw, txs: []domain.Transaction{}}
}

func (d *Dashboard) replace(txs []domain.Transaction) {
	d.txs = txs
	d.gen++
}

// Mount fetches the list the first time the view is shown. Later calls are
// no-ops; use Reload to refetch. A Mount that arrives while the first fetch is
// still running also returns at once, and its caller renders the loading state.
func (d *Dashboard) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.mounted {
		d.mu.Unlock()
		return nil
	}
	d.mounted = true
	d.mu.Unlock()

	return d.load(ctx)
}

// Reload refetches the list unconditionally.
func (d *Dashboard) Reload(ctx context.Context) error {
	d.mu.Lock()
	d.mounted = true
	d.mu.Unlock()

	return d.load(ctx)
}

// load degrades to an empty list on failure, without a banner or retry. The
// error is still returned so the caller can react to a rejected session.
// A result is dropped when the list was replaced while the fetch ran, e.g. by
// a finished clear or a newer load.
func (d *Dashboard) load(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	start := d.gen
	d.mu.Unlock()

	txs, err := d.gw.FetchTransactions(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		logger.WithContext(ctx).Warn("failed to fetch transactions", "error", err)
	}
	if d.gen != start {
		logger.WithContext(ctx).Debug("dropping stale transaction list", "started_at", start, "current", d.gen)
		return err
	}
	if err != nil {
		d.replace([]domain.Transaction{})
		return err
	}
	d.replace(dashboard.SortDefault(txs))
	return nil
}

// Clear asks the backend to delete everything. Only one clear may be in flight.
// On success the list becomes empty; on failure it is left untouched. The
// returned error is also reflected in the banner.
func (d *Dashboard) Clear(ctx context.Context) (*domain.ClearResult, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.busy = true
	d.banner = nil
	d.mu.Unlock()

	res, err := d.gw.ClearTransactions(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	if err != nil {
		d.banner = &Banner{Kind: BannerError, Message: "Failed to clear transactions"}
		return nil, err
	}
	d.replace([]domain.Transaction{})
	d.banner = &Banner{Kind: BannerSuccess, Message: fmt.Sprintf("Deleted %d transactions", res.Deleted)}
	return res, nil
}

// Upload forwards a CSV batch and reloads the list when the backend accepts it.
func (d *Dashboard) Upload(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error) {
	res, err := d.gw.Upload(ctx, filename, content)
	if err != nil {
		d.setBanner(&Banner{Kind: BannerError, Message: "Upload failed"})
		return nil, err
	}

	msg := res.Message
	if msg == "" {
		msg = "File processed"
	}
	d.setBanner(&Banner{Kind: BannerSuccess, Message: fmt.Sprintf("%s (%d rows)", msg, res.RowsProcessed)})
	if err := d.Reload(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (d *Dashboard) setBanner(b *Banner) {
	d.mu.Lock()
	d.banner = b
	d.mu.Unlock()
}

// SetBanner replaces the status banner, e.g. with a message from the
// surrounding handler.
func (d *Dashboard) SetBanner(kind BannerKind, message string) {
	d.setBanner(&Banner{Kind: kind, Message: message})
}

// DismissBanner hides the status banner.
func (d *Dashboard) DismissBanner() {
	d.setBanner(nil)
}

func (d *Dashboard) SetSearch(s string) {
	d.mu.Lock()
	d.search = s
	d.mu.Unlock()
}

func (d *Dashboard) SetReason(s string) {
	d.mu.Lock()
	d.reason = s
	d.mu.Unlock()
}

func (d *Dashboard) SetFlagType(s string) {
	d.mu.Lock()
	d.flagType = s
	d.mu.Unlock()
}

// ClickSort registers a click on a column header.
func (d *Dashboard) ClickSort(key dashboard.SortKey) dashboard.SortSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sort.Click(key)
}

// SetSort forces the sort spec, used when it comes from a URL.
func (d *Dashboard) SetSort(spec dashboard.SortSpec) {
	d.mu.Lock()
	d.sort.Set(spec)
	d.mu.Unlock()
}

// SortState returns a copy of the header toggle.
func (d *Dashboard) SortState() dashboard.SortState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sort
}

func (d *Dashboard) criteria() dashboard.Criteria {
	return dashboard.Criteria{
		Search:   d.search,
		Reason:   d.reason,
		FlagType: d.flagType,
		Sort:     d.sort.Spec(),
	}
}

// Visible returns the filtered, sorted transactions.
func (d *Dashboard) Visible() []domain.Transaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.View(d.gen, d.txs, d.criteria())
}

// Rows returns the rendered rows for the current selections.
func (d *Dashboard) Rows() []dashboard.Row {
	return dashboard.BuildRows(d.Visible())
}

// Snapshot captures the full render state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.criteria()
	visible := d.engine.View(d.gen, d.txs, c)
	var banner *Banner
	if d.banner != nil {
		b := *d.banner
		banner = &b
	}

	return Snapshot{
		Rows:          dashboard.BuildRows(visible),
		Total:         len(d.txs),
		Shown:         len(visible),
		Loading:       d.loading,
		Busy:          d.busy,
		Banner:        banner,
		Criteria:      c,
		ReasonOptions: dashboard.ReasonOptions(d.txs),
		TypeOptions:   dashboard.FlagTypeOptions(d.txs),
	}
}

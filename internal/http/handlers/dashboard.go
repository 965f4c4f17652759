package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"anomalyse_dashboard/internal/dashboard"
	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/view"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 32 << 20

var errNotCSV = errors.New("only CSV files are supported")

var openUpload = func(fh *multipart.FileHeader) (multipart.File, error) {
	return fh.Open()
}

type column struct {
	Label string
	Key   dashboard.SortKey
}

var columns = []column{
	{Label: "Transaction ID", Key: dashboard.SortByID},
	{Label: "Timestamp", Key: dashboard.SortByTimestamp},
	{Label: "User", Key: dashboard.SortByUser},
	{Label: "Location", Key: dashboard.SortByCity},
	{Label: "Category", Key: dashboard.SortByCategory},
	{Label: "Amount", Key: dashboard.SortByAmount},
	{Label: "Risk", Key: dashboard.SortByRiskScore},
	{Label: "Status"},
	{Label: "Flags"},
	{Label: "Action"},
}

type header struct {
	Label     string
	Link      string
	Indicator string
	Next      dashboard.Direction
}

type dashboardPage struct {
	Analyst  *domain.User
	View     view.Snapshot
	Search   string
	Reason   string
	FlagType string
	Headers  []header
}

func headers(state dashboard.SortState) []header {
	spec := state.Spec()
	out := make([]header, len(columns))
	for i, col := range columns {
		out[i] = header{Label: col.Label}
		if col.Key == "" {
			continue
		}
		out[i].Link = "/?click=" + url.QueryEscape(string(col.Key))
		out[i].Next = state.Next(col.Key).Direction
		if spec.Key == col.Key {
			out[i].Indicator = "▲"
			if spec.Direction == dashboard.Desc {
				out[i].Indicator = "▼"
			}
		}
	}
	return out
}

// applyFilters copies the filter params present in the query onto d. Absent
// params keep the previous selection.
func applyFilters(c *gin.Context, d *view.Dashboard) {
	if v, ok := c.GetQuery("search"); ok {
		d.SetSearch(v)
	}
	if v, ok := c.GetQuery("reason"); ok {
		d.SetReason(v)
	}
	if v, ok := c.GetQuery("flag_type"); ok {
		d.SetFlagType(v)
	}
}

// applySort reads an explicit sort+dir pair. An empty sort clears it.
func applySort(c *gin.Context, d *view.Dashboard) error {
	key, ok := c.GetQuery("sort")
	if !ok {
		return nil
	}
	if key == "" {
		d.SetSort(dashboard.SortSpec{})
		return nil
	}
	k, err := dashboard.ParseSortKey(key)
	if err != nil {
		return err
	}
	d.SetSort(dashboard.SortSpec{Key: k, Direction: dashboard.ParseDirection(c.Query("dir"))})
	return nil
}

// Page renders the dashboard.
func (h *Handler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.bind(c)
	d := h.dashboard(s)

	if err := d.Mount(ctx); errors.Is(err, gateway.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if key, ok := c.GetQuery("click"); ok {
		if k, err := dashboard.ParseSortKey(key); err == nil {
			d.ClickSort(k)
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	applyFilters(c, d)
	if err := applySort(c, d); err != nil {
		d.SetBanner(view.BannerError, err.Error())
	}

	snap := d.Snapshot()
	c.HTML(http.StatusOK, "dashboard.html", dashboardPage{
		Analyst:  getAnalyst(c),
		View:     snap,
		Search:   snap.Criteria.Search,
		Reason:   snap.Criteria.Reason,
		FlagType: snap.Criteria.FlagType,
		Headers:  headers(d.SortState()),
	})
}

// RefreshForm refetches the list from the page.
func (h *Handler) RefreshForm(c *gin.Context) {
	s := h.bind(c)
	if err := h.dashboard(s).Reload(c.Request.Context()); errors.Is(err, gateway.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// DismissBanner hides the status banner.
func (h *Handler) DismissBanner(c *gin.Context) {
	h.dashboard(h.bind(c)).DismissBanner()
	c.Redirect(http.StatusSeeOther, "/")
}

// ClearForm deletes all transactions from the page.
func (h *Handler) ClearForm(c *gin.Context) {
	if _, err := h.clear(c); errors.Is(err, gateway.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// UploadForm forwards a CSV batch from the page.
func (h *Handler) UploadForm(c *gin.Context) {
	if _, err := h.upload(c); errors.Is(err, gateway.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Transactions returns the current view as JSON. Accepts search, reason,
// flag_type, sort and dir.
func (h *Handler) Transactions(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.bind(c)
	d := h.dashboard(s)

	if err := d.Mount(ctx); errors.Is(err, gateway.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	applyFilters(c, d)
	if err := applySort(c, d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "sort_keys": dashboard.SortKeys()})
		return
	}

	c.JSON(http.StatusOK, snapshotJSON(d.Snapshot()))
}

type SortRequest struct {
	Key string `json:"key" binding:"required"`
}

// Sort registers a header click: the first click sorts ascending, the next
// one on the same key flips the direction.
func (h *Handler) Sort(c *gin.Context) {
	var req SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	k, err := dashboard.ParseSortKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "sort_keys": dashboard.SortKeys()})
		return
	}

	d := h.dashboard(h.bind(c))
	d.ClickSort(k)
	c.JSON(http.StatusOK, snapshotJSON(d.Snapshot()))
}

// Refresh refetches the list.
func (h *Handler) Refresh(c *gin.Context) {
	d := h.dashboard(h.bind(c))
	if err := d.Reload(c.Request.Context()); err != nil {
		c.JSON(backendStatus(err), gin.H{"error": "failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, snapshotJSON(d.Snapshot()))
}

// Clear deletes all transactions.
func (h *Handler) Clear(c *gin.Context) {
	res, err := h.clear(c)
	if err != nil {
		c.JSON(backendStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) clear(c *gin.Context) (*domain.ClearResult, error) {
	ctx := c.Request.Context()
	analyst := getAnalyst(c)

	res, err := h.dashboard(h.bind(c)).Clear(ctx)
	if errors.Is(err, view.ErrBusy) {
		return nil, err
	}
	deleted := 0
	if res != nil {
		deleted = res.Deleted
	}
	if err != nil {
		logger.WithContext(ctx).Error("failed to clear transactions", "analyst", analyst.Email, "error", err)
	} else {
		logger.WithContext(ctx).Info("transactions cleared", "analyst", analyst.Email, "deleted", deleted)
	}
	h.Audit.LogClear(ctx, analyst.Email, c.ClientIP(), c.Request.UserAgent(), deleted, err)
	return res, err
}

// Upload forwards a multipart CSV batch.
func (h *Handler) Upload(c *gin.Context) {
	res, err := h.upload(c)
	if err != nil {
		status := backendStatus(err)
		if errors.Is(err, errNotCSV) || errors.Is(err, http.ErrMissingFile) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) upload(c *gin.Context) (*domain.UploadResult, error) {
	ctx := c.Request.Context()
	analyst := getAnalyst(c)
	d := h.dashboard(h.bind(c))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		d.SetBanner(view.BannerError, "Choose a CSV file to upload")
		return nil, http.ErrMissingFile
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		d.SetBanner(view.BannerError, "Only CSV files are supported")
		return nil, errNotCSV
	}

	f, err := openUpload(fh)
	if err != nil {
		logger.WithContext(ctx).Error("failed to read upload", "analyst", analyst.Email, "file", fh.Filename, "error", err)
		d.SetBanner(view.BannerError, "Upload failed")
		h.Audit.LogUpload(ctx, analyst.Email, c.ClientIP(), c.Request.UserAgent(), fh.Filename, 0, err)
		return nil, err
	}
	defer f.Close()

	res, err := d.Upload(ctx, fh.Filename, f)
	if res == nil {
		logger.WithContext(ctx).Error("upload failed", "analyst", analyst.Email, "file", fh.Filename, "error", err)
		h.Audit.LogUpload(ctx, analyst.Email, c.ClientIP(), c.Request.UserAgent(), fh.Filename, 0, err)
		return nil, err
	}
	if err != nil {
		// accepted, only the reload afterwards failed
		logger.WithContext(ctx).Warn("reload after upload failed", "error", err)
	}
	logger.WithContext(ctx).Info("batch uploaded", "analyst", analyst.Email, "file", fh.Filename, "rows", res.RowsProcessed)
	h.Audit.LogUpload(ctx, analyst.Email, c.ClientIP(), c.Request.UserAgent(), fh.Filename, res.RowsProcessed, nil)
	return res, nil
}

// Metrics passes the backend's fraud metrics through.
func (h *Handler) Metrics(c *gin.Context) {
	m, err := h.bind(c).backend.Metrics(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to fetch metrics", "error", err)
		c.JSON(backendStatus(err), gin.H{"error": "failed to fetch metrics"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// Predict scores one transaction on demand. Backend validation errors keep
// their status; everything else is a gateway failure.
func (h *Handler) Predict(c *gin.Context) {
	var req domain.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp and user_id are required"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.bind(c).backend.Predict(ctx, req)
	if err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "backend rejected the transaction", "detail": se.Body})
			return
		}
		logger.WithContext(ctx).Error("prediction failed", "user_id", req.UserID, "error", err)
		c.JSON(backendStatus(err), gin.H{"error": "prediction failed"})
		return
	}

	row := dashboard.BuildRow(&domain.Transaction{
		UserID:    req.UserID,
		Timestamp: req.Timestamp,
		Amount:    req.Amount,
		City:      req.City,
		Category:  req.Category,
		RiskScore: &p.RiskScore,
	})
	c.JSON(http.StatusOK, gin.H{
		"prediction": p,
		"status":     row.Status,
		"action":     row.Action,
	})
}

// AuditLogs lists recent analyst actions, optionally for one analyst.
func (h *Handler) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ctx := c.Request.Context()
	var (
		logs []*domain.AuditLog
		err  error
	)
	if analyst := c.Query("analyst"); analyst != "" {
		logs, err = h.Audit.GetAnalystLogs(ctx, analyst, limit)
	} else {
		logs, err = h.Audit.GetRecentLogs(ctx, limit)
	}
	if err != nil {
		logger.WithContext(ctx).Error("failed to read audit logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": h.Audit.Enabled(),
		"logs":    logs,
		"count":   len(logs),
	})
}

type sortJSON struct {
	Key       dashboard.SortKey   `json:"key,omitempty"`
	Direction dashboard.Direction `json:"direction,omitempty"`
}

type criteriaJSON struct {
	Search   string   `json:"search"`
	Reason   string   `json:"reason"`
	FlagType string   `json:"flag_type"`
	Sort     sortJSON `json:"sort"`
}

type snapshotResponse struct {
	view.Snapshot
	Criteria criteriaJSON `json:"criteria"`
}

func snapshotJSON(s view.Snapshot) snapshotResponse {
	return snapshotResponse{
		Snapshot: s,
		Criteria: criteriaJSON{
			Search:   s.Criteria.Search,
			Reason:   s.Criteria.Reason,
			FlagType: s.Criteria.FlagType,
			Sort:     sortJSON{Key: s.Criteria.Sort.Key, Direction: s.Criteria.Sort.Direction},
		},
	}
}

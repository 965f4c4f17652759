package service

import (
	"context"

	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/logger"
)

// AuditStore persists audit entries. *repository.AuditRepository implements it.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error)
	GetByAnalyst(ctx context.Context, analyst string, limit int) ([]*domain.AuditLog, error)
}

// AuditService records analyst actions. A nil store turns it into a no-op,
// which is how the server runs without DATABASE_URL.
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, analyst, action, category, ip, userAgent string, details map[string]interface{}) {
	if !s.Enabled() {
		return
	}
	log := &domain.AuditLog{
		Analyst:   analyst,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "analyst", analyst)
	}
}

// LogLogin logs an analyst login
func (s *AuditService) LogLogin(ctx context.Context, analyst, ip, userAgent string) {
	s.LogWithRequest(ctx, analyst, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// LogLogout logs an analyst logout or a forced session teardown
func (s *AuditService) LogLogout(ctx context.Context, analyst, ip, userAgent string, forced bool) {
	s.LogWithRequest(ctx, analyst, domain.AuditActionLogout, domain.AuditCategoryAuth, ip, userAgent, map[string]interface{}{
		"forced": forced,
	})
}

// LogClear logs a clear-all request and its outcome
func (s *AuditService) LogClear(ctx context.Context, analyst, ip, userAgent string, deleted int, err error) {
	if err != nil {
		s.LogWithRequest(ctx, analyst, domain.AuditActionClearFailed, domain.AuditCategoryTransactions, ip, userAgent, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.LogWithRequest(ctx, analyst, domain.AuditActionClearAll, domain.AuditCategoryTransactions, ip, userAgent, map[string]interface{}{
		"deleted": deleted,
	})
}

// LogUpload logs a CSV batch upload and its outcome
func (s *AuditService) LogUpload(ctx context.Context, analyst, ip, userAgent, filename string, rows int, err error) {
	details := map[string]interface{}{"filename": filename}
	if err != nil {
		details["error"] = err.Error()
		s.LogWithRequest(ctx, analyst, domain.AuditActionUploadFailed, domain.AuditCategoryTransactions, ip, userAgent, details)
		return
	}
	details["rows_processed"] = rows
	s.LogWithRequest(ctx, analyst, domain.AuditActionUpload, domain.AuditCategoryTransactions, ip, userAgent, details)
}

// GetRecentLogs returns recent audit logs
func (s *AuditService) GetRecentLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	if !s.Enabled() {
		return []*domain.AuditLog{}, nil
	}
	return s.repo.GetRecent(ctx, limit)
}

// GetAnalystLogs returns audit logs for one analyst
func (s *AuditService) GetAnalystLogs(ctx context.Context, analyst string, limit int) ([]*domain.AuditLog, error) {
	if !s.Enabled() {
		return []*domain.AuditLog{}, nil
	}
	return s.repo.GetByAnalyst(ctx, analyst, limit)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/http/middleware"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/service"
	"anomalyse_dashboard/internal/session"
	"anomalyse_dashboard/internal/view"

	"github.com/gin-gonic/gin"
)

const analystKey = "analyst"

var timeNow = time.Now

type Handler struct {
	Backend  *gateway.Client
	Sessions session.Store
	Tokens   session.AnalystReader
	Views    *view.Registry
	Audit    *service.AuditService

	// DevToken logs every new session in without a password when set.
	DevToken string
}

func NewHandler(backend *gateway.Client, sessions session.Store, tokens session.AnalystReader, views *view.Registry, audit *service.AuditService) *Handler {
	return &Handler{
		Backend:  backend,
		Sessions: sessions,
		Tokens:   tokens,
		Views:    views,
		Audit:    audit,
	}
}

// analystSession is everything bound to one browser session.
type analystSession struct {
	id      string
	auth    *session.Auth
	backend *gateway.Client
}

func (h *Handler) bind(c *gin.Context) *analystSession {
	sid := middleware.SessionID(c)
	auth := session.NewAuth(session.Scoped(h.Sessions, sid), h.Tokens)
	// The hook outlives this request once the dashboard is cached, so it
	// must not touch c.
	backend := h.Backend.WithSession(auth.Store(), func(ctx context.Context) {
		logger.WithContext(ctx).Warn("backend rejected session, logging out", "session", sid)
		h.teardown(ctx, sid, auth, "", "", true)
	})
	return &analystSession{id: sid, auth: auth, backend: backend}
}

// dashboard returns the view of the session, creating it on first use.
func (h *Handler) dashboard(s *analystSession) *view.Dashboard {
	return h.Views.Get(s.id, func() *view.Dashboard {
		return view.NewDashboard(s.backend)
	})
}

func (h *Handler) teardown(ctx context.Context, sid string, auth *session.Auth, ip, userAgent string, forced bool) {
	analyst := ""
	if u, err := auth.CurrentUser(ctx); err == nil {
		analyst = u.Email
	}
	auth.Teardown(ctx)
	h.Views.Drop(sid)
	if analyst != "" {
		h.Audit.LogLogout(ctx, analyst, ip, userAgent, forced)
	}
}

// currentAnalyst returns the logged in analyst, logging in with DevToken
// when one is configured and the session is empty.
func (h *Handler) currentAnalyst(c *gin.Context, s *analystSession) (*domain.User, error) {
	ctx := c.Request.Context()
	user, err := s.auth.CurrentUser(ctx)
	if errors.Is(err, session.ErrNotLoggedIn) && h.DevToken != "" {
		return s.auth.Login(ctx, h.DevToken, "developer")
	}
	if err != nil {
		return nil, err
	}
	if user.Expired(timeNow()) {
		h.teardown(ctx, s.id, s.auth, c.ClientIP(), c.Request.UserAgent(), true)
		return nil, session.ErrNotLoggedIn
	}
	return user, nil
}

// RequireLogin rejects requests without a logged in analyst: JSON routes get a
// 401, pages are redirected to the login form.
func (h *Handler) RequireLogin(page bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := h.bind(c)
		user, err := h.currentAnalyst(c, s)
		if err != nil {
			if !errors.Is(err, session.ErrNotLoggedIn) {
				logger.WithContext(c.Request.Context()).Error("failed to load session", "error", err)
			}
			if page {
				c.Redirect(http.StatusSeeOther, "/login")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		c.Set(analystKey, user)
		c.Next()
	}
}

// getAnalyst extracts the analyst stored by RequireLogin
func getAnalyst(c *gin.Context) *domain.User {
	v, ok := c.Get(analystKey)
	if !ok {
		return &domain.User{}
	}
	u, ok := v.(*domain.User)
	if !ok {
		return &domain.User{}
	}
	return u
}

// backendStatus maps a gateway error to the status a JSON client sees.
func backendStatus(err error) int {
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, view.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

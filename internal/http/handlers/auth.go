package handlers

import (
	"errors"
	"net/http"
	"strings"

	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/logger"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type loginPage struct {
	Email string
	Error string
}

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(c *gin.Context) {
	s := h.bind(c)
	if _, err := s.auth.CurrentUser(c.Request.Context()); err == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{})
}

// LoginForm handles the HTML sign-in form.
func (h *Handler) LoginForm(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", loginPage{Email: req.Email, Error: "Email and password are required"})
		return
	}

	status, err := h.login(c, req)
	if err != nil {
		msg := "Login failed, please try again"
		if status == http.StatusUnauthorized {
			msg = "Invalid email or password"
		}
		c.HTML(status, "login.html", loginPage{Email: req.Email, Error: msg})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Login handles the JSON sign-in.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	status, err := h.login(c, req)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": getAnalyst(c)})
}

func (h *Handler) login(c *gin.Context, req LoginRequest) (int, error) {
	ctx := c.Request.Context()
	email := strings.TrimSpace(req.Email)

	token, err := h.Backend.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			logger.WithContext(ctx).Info("login rejected", "email", email)
			return http.StatusUnauthorized, err
		}
		logger.WithContext(ctx).Error("login failed", "email", email, "error", err)
		return http.StatusBadGateway, errors.New("login failed")
	}

	s := h.bind(c)
	// a previous analyst's view must not leak into the new login
	h.Views.Drop(s.id)
	user, err := s.auth.Login(ctx, token, email)
	if err != nil {
		logger.WithContext(ctx).Error("failed to store session", "error", err)
		return http.StatusInternalServerError, errors.New("failed to store session")
	}
	c.Set(analystKey, user)
	h.Audit.LogLogin(ctx, user.Email, c.ClientIP(), c.Request.UserAgent())
	return http.StatusOK, nil
}

// LogoutForm ends the session and returns to the sign-in form.
func (h *Handler) LogoutForm(c *gin.Context) {
	s := h.bind(c)
	h.teardown(c.Request.Context(), s.id, s.auth, c.ClientIP(), c.Request.UserAgent(), false)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Logout ends the session.
func (h *Handler) Logout(c *gin.Context) {
	s := h.bind(c)
	h.teardown(c.Request.Context(), s.id, s.auth, c.ClientIP(), c.Request.UserAgent(), false)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the logged in analyst.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, getAnalyst(c))
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/session"
)

var (
	// ErrUnauthorized is returned for any 401 on an authenticated call, after
	// the OnUnauthorized hook has run.
	ErrUnauthorized = errors.New("backend rejected the session")
	// ErrInvalidCredentials is returned by Login on 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StatusError is any other non-2xx answer from the backend.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: unexpected status code: %d, body: %s", e.Endpoint, e.Code, e.Body)
}

// Client talks to the scoring backend. It never retries; every failure is
// returned to the caller.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session session.Store

	// OnUnauthorized runs before ErrUnauthorized is returned. The server wires
	// it to session teardown.
	OnUnauthorized func(ctx context.Context)
}

func NewClient(baseURL string, timeout time.Duration, store session.Store) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Session: store,
	}
}

// WithSession returns a shallow copy bound to another session store, used per
// request by the server.
func (c *Client) WithSession(store session.Store, onUnauthorized func(ctx context.Context)) *Client {
	cp := *c
	cp.Session = store
	cp.OnUnauthorized = onUnauthorized
	return &cp
}

type request struct {
	method      string
	endpoint    string
	body        io.Reader
	contentType string
	anonymous   bool
}

func (c *Client) bearer(ctx context.Context) string {
	if c.Session == nil {
		return ""
	}
	tok, _, err := c.Session.Get(ctx, session.KeyToken)
	if err != nil {
		logger.Warn("failed to read session token", "error", err)
		return ""
	}
	return tok
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		backendRequests.WithLabelValues(r.endpoint, outcome).Inc()
		backendLatency.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, c.BaseURL+r.endpoint, r.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if !r.anonymous {
		// an absent token still sends the header with an empty value
		req.Header.Set("Authorization", "Bearer "+c.bearer(ctx))
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		outcome = "unauthorized"
		if r.anonymous {
			return ErrInvalidCredentials
		}
		if c.OnUnauthorized != nil {
			c.OnUnauthorized(ctx)
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status"
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Endpoint: r.endpoint, Code: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			outcome = "decode"
			return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
		}
	}
	outcome = "ok"
	return nil
}

// FetchTransactions loads the full transaction list.
func (c *Client) FetchTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "/transactions"}, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// ClearTransactions deletes every stored transaction on the backend.
func (c *Client) ClearTransactions(ctx context.Context) (*domain.ClearResult, error) {
	var res domain.ClearResult
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: "/transactions/clear"}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Upload sends a CSV batch as the multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*domain.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res domain.UploadResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/upload",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Metrics loads the aggregate figures for the overview page.
func (c *Client) Metrics(ctx context.Context) (*domain.FraudMetrics, error) {
	var m domain.FraudMetrics
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "/dashboard/metrics"}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Predict scores a single transaction without storing it.
func (c *Client) Predict(ctx context.Context, req domain.PredictionRequest) (*domain.Prediction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var p domain.Prediction
	err = c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/predict",
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. It does not touch the
// session store; storing the token is the caller's job.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var res loginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/auth/login",
		body:        bytes.NewReader(body),
		contentType: "application/json",
		anonymous:   true,
	}, &res)
	if err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", errors.New("backend returned an empty token")
	}
	return res.AccessToken, nil
}

// BackendHealth is the body of GET /health/db.
type BackendHealth struct {
	Dialect              string `json:"dialect"`
	HasTransactionsTable bool   `json:"hasTransactionsTable"`
	TransactionsCount    int    `json:"transactionsCount"`
}

// Health checks the backend and its database.
func (c *Client) Health(ctx context.Context) (*BackendHealth, error) {
	var h BackendHealth
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "/health/db", anonymous: true}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

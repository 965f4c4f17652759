package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"anomalyse_dashboard/internal/config"
	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/http/middleware"
	"anomalyse_dashboard/internal/service"
	"anomalyse_dashboard/internal/session"
	"anomalyse_dashboard/internal/view"

	"github.com/gin-gonic/gin"
)

const sampleTransactions = `[
	{"id":"T1","user_id":"U1","timestamp":"2024-01-01T10:00:00","amount":1234.5,"city":"Paris","category":"Travel","riskScore":85,
	 "flags":[{"type":"High Velocity","reason":"5 transactions in 1 minute"}]},
	{"id":"T2","user_id":"U2","timestamp":"2024-01-02T10:00:00","amount":20,"city":"Lyon","category":"Food","riskScore":30}
]`

// fakeBackend plays the scoring backend.
type fakeBackend struct {
	mu       sync.Mutex
	cleared  bool
	rejectAt string
	uploads  []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == f.rejectAt {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/login":
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Invalid credentials"}`)
			return
		}
		io.WriteString(w, `{"access_token":"opaque-token","token_type":"bearer"}`)
	case r.URL.Path == "/health/db":
		io.WriteString(w, `{"dialect":"sqlite","hasTransactionsTable":true,"transactionsCount":2}`)
	case r.Header.Get("Authorization") != "Bearer opaque-token":
		w.WriteHeader(http.StatusUnauthorized)
	case r.URL.Path == "/transactions" && r.Method == http.MethodGet:
		if f.cleared {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, sampleTransactions)
	case r.URL.Path == "/transactions/clear":
		f.cleared = true
		io.WriteString(w, `{"success":true,"deleted":2}`)
	case r.URL.Path == "/upload":
		_, fh, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.uploads = append(f.uploads, fh.Filename)
		f.cleared = false
		io.WriteString(w, `{"success":true,"message":"File processed and transactions stored.","rowsProcessed":2}`)
	case r.URL.Path == "/predict":
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["timestamp"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"detail":"Invalid timestamp format"}`)
			return
		}
		io.WriteString(w, `{"is_fraud":true,"risk_score":91.5,"status":"Suspicious"}`)
	case r.URL.Path == "/dashboard/metrics":
		io.WriteString(w, `{"totalTransactions":2,"flaggedTransactions":1,"overallRiskScore":57.5,"fraudTrend":[],"riskDistribution":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	backend *fakeBackend
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.InitRedisRateLimiter(nil)

	fb := &fakeBackend{}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	sessions := session.NewMemoryStore()
	cfg := &config.Config{APIRateLimit: 1000, APIRateWindow: time.Minute}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())
	RegisterRoutes(r, Deps{
		Config:   cfg,
		Backend:  gateway.NewClient(srv.URL, 5*time.Second, sessions),
		Sessions: sessions,
		Tokens:   service.NewTokenReader(""),
		Views:    view.NewRegistry(time.Hour),
		Audit:    service.NewAuditService(nil),
		Version:  "test",
	})
	return &testServer{t: t, router: r, backend: fb}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			s.cookie = c
		}
	}
	return w
}

func (s *testServer) json(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) login() {
	s.t.Helper()
	w := s.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.com", "password": "secret"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

type snapshotBody struct {
	Rows []struct {
		ID          string `json:"id"`
		Amount      string `json:"amount"`
		RiskPercent int    `json:"risk_percent"`
		Status      string `json:"status"`
		Flags       []struct {
			Type     string `json:"type"`
			Severity string `json:"severity"`
		} `json:"flags"`
	} `json:"rows"`
	Total    int `json:"total"`
	Shown    int `json:"shown"`
	Criteria struct {
		Sort struct {
			Key       string `json:"key"`
			Direction string `json:"direction"`
		} `json:"sort"`
	} `json:"criteria"`
	Banner *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"banner"`
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body snapshotBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func ids(b snapshotBody) string {
	out := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		out[i] = r.ID
	}
	return strings.Join(out, ",")
}

func TestAPI_RequiresLogin(t *testing.T) {
	s := newTestServer(t)
	if w := s.json(http.MethodGet, "/api/v1/transactions", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAPI_LoginRejected(t *testing.T) {
	s := newTestServer(t)
	w := s.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ana@example.com", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := s.json(http.MethodGet, "/api/v1/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("a rejected login must not create a session, got %d", w.Code)
	}
}

func TestAPI_ListFilterSort(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if w := s.json(http.MethodGet, "/api/v1/me", nil); !strings.Contains(w.Body.String(), "ana@example.com") {
		t.Fatalf("expected analyst email from login form, got %s", w.Body.String())
	}

	body := decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions", nil))
	if ids(body) != "T2,T1" || body.Total != 2 {
		t.Fatalf("expected newest first, got %s", ids(body))
	}
	t1 := body.Rows[1]
	if t1.Amount != "$1,234.50" || t1.RiskPercent != 85 || t1.Status != "Fake/Suspicious" {
		t.Fatalf("unexpected T1 row %+v", t1)
	}
	if len(t1.Flags) != 1 || t1.Flags[0].Severity != "critical" {
		t.Fatalf("expected one critical badge, got %+v", t1.Flags)
	}

	body = decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions?search=t2", nil))
	if ids(body) != "T2" || body.Shown != 1 || body.Total != 2 {
		t.Fatalf("search: got %s", ids(body))
	}

	// selections stick to the session
	body = decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions", nil))
	if ids(body) != "T2" {
		t.Fatalf("expected search to persist, got %s", ids(body))
	}

	body = decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions?search=&sort=riskScore&dir=desc", nil))
	if ids(body) != "T1,T2" || body.Criteria.Sort.Key != "riskScore" || body.Criteria.Sort.Direction != "desc" {
		t.Fatalf("explicit sort: got %s %+v", ids(body), body.Criteria.Sort)
	}

	body = decodeSnapshot(t, s.json(http.MethodPost, "/api/v1/transactions/sort", map[string]string{"key": "amount"}))
	if ids(body) != "T2,T1" || body.Criteria.Sort.Direction != "asc" {
		t.Fatalf("first click: got %s %+v", ids(body), body.Criteria.Sort)
	}
	body = decodeSnapshot(t, s.json(http.MethodPost, "/api/v1/transactions/sort", map[string]string{"key": "amount"}))
	if ids(body) != "T1,T2" || body.Criteria.Sort.Direction != "desc" {
		t.Fatalf("second click: got %s %+v", ids(body), body.Criteria.Sort)
	}

	if w := s.json(http.MethodGet, "/api/v1/transactions?sort=bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort key, got %d", w.Code)
	}
}

func TestAPI_ClearAndUpload(t *testing.T) {
	s := newTestServer(t)
	s.login()
	decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions", nil))

	w := s.json(http.MethodPost, "/api/v1/transactions/clear", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":2`) {
		t.Fatalf("clear: %d %s", w.Code, w.Body.String())
	}
	body := decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions", nil))
	if body.Total != 0 || body.Banner == nil || body.Banner.Message != "Deleted 2 transactions" {
		t.Fatalf("after clear: %+v", body)
	}

	if w := s.upload("notes.txt"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-csv, got %d", w.Code)
	}
	w = s.upload("batch.CSV")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"rowsProcessed":2`) {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	body = decodeSnapshot(t, s.json(http.MethodGet, "/api/v1/transactions", nil))
	if body.Total != 2 {
		t.Fatalf("expected reload after upload, got %d rows", body.Total)
	}
	if len(s.backend.uploads) != 1 || s.backend.uploads[0] != "batch.CSV" {
		t.Fatalf("unexpected uploads %v", s.backend.uploads)
	}
}

func (s *testServer) upload(name string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", name)
	io.WriteString(fw, "id,user_id,amount\nT9,U9,10\n")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func TestAPI_BackendRejectionLogsOut(t *testing.T) {
	s := newTestServer(t)
	s.login()

	s.backend.mu.Lock()
	s.backend.rejectAt = "/transactions"
	s.backend.mu.Unlock()

	if w := s.json(http.MethodGet, "/api/v1/transactions", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := s.json(http.MethodGet, "/api/v1/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected session teardown, got %d", w.Code)
	}
}

func TestAPI_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.login()
	w := s.json(http.MethodGet, "/api/v1/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"flaggedTransactions":1`) {
		t.Fatalf("metrics: %d %s", w.Code, w.Body.String())
	}
}

func TestAPI_Predict(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w := s.json(http.MethodPost, "/api/v1/predict", map[string]any{
		"timestamp": "2024-01-01T10:00:00", "amount": 900, "user_id": "U9", "city": "Paris", "category": "Travel",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("predict: %d %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"risk_score":91.5`, `"is_fraud":true`, `"status":"Fake/Suspicious"`, `"action":"Immediate Review"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in %s", want, body)
		}
	}

	w = s.json(http.MethodPost, "/api/v1/predict", map[string]any{"amount": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: expected 400, got %d", w.Code)
	}

	w = s.json(http.MethodPost, "/api/v1/predict", map[string]any{"timestamp": "bad", "user_id": "U9"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Invalid timestamp format") {
		t.Fatalf("backend rejection: %d %s", w.Code, w.Body.String())
	}
}

func TestAPI_AuditDisabled(t *testing.T) {
	s := newTestServer(t)
	s.login()
	w := s.json(http.MethodGet, "/api/v1/audit", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"enabled":false`) {
		t.Fatalf("audit: %d %s", w.Code, w.Body.String())
	}
}

func TestPages_LoginFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %s", w.Code, w.Header().Get("Location"))
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sign in") {
		t.Fatalf("login page: %d", w.Code)
	}

	form := url.Values{"email": {"ana@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(req)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Fatalf("bad login: %d", w.Code)
	}

	form.Set("password", "secret")
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("login: %d %s", w.Code, w.Header().Get("Location"))
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/?reason=5+transactions+in+1+minute", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "T1") || strings.Contains(page, "<td>T2</td>") || !strings.Contains(page, "Showing 1 of 2") {
		t.Fatalf("expected reason filter to apply:\n%s", page)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/?click=amount", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("header click: %d", w.Code)
	}
	w = s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(w.Body.String(), "Amount ▲") {
		t.Fatalf("expected ascending indicator on amount")
	}

	w = s.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("logout: %d", w.Code)
	}
	w = s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		if w := s.do(httptest.NewRequest(http.MethodGet, path, nil)); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

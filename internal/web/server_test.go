package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/carcatalog/internal/auth"
	"github.com/JonMunkholm/carcatalog/internal/config"
	"github.com/JonMunkholm/carcatalog/internal/core"
	"github.com/JonMunkholm/carcatalog/internal/web/templates"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "Admin@123"
	carsHeader   = "Make Name,Model Name,Trim Name,Engine Type,Body Type,Engine Cylinders\n"
)

// memCars is an in-memory core.CarStore.
type memCars struct {
	mu   sync.Mutex
	cars map[core.NaturalKey]core.CarRecord
}

func (m *memCars) CarExists(_ context.Context, key core.NaturalKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cars[key]
	return ok, nil
}

func (m *memCars) InsertCar(_ context.Context, car core.CarRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cars[car.Key()] = car
	return int64(len(m.cars)), nil
}

type memUsers map[string]core.User

func (m memUsers) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	u, ok := m[email]
	if !ok {
		return core.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	srv    *Server
	cars   *memCars
	tokens *auth.TokenService
	cfg    *config.Config
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 10,
			TempDir:       t.TempDir(),
			MaxConcurrent: 1,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       time.Minute,
		},
		Auth: config.AuthConfig{
			JWTSecret:  "web-test-secret-0123456789",
			TokenTTL:   time.Hour,
			Issuer:     "carcatalog",
			CookieName: "accessToken",
		},
	}
	for _, m := range mutate {
		m(cfg)
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	cars := &memCars{cars: make(map[core.NaturalKey]core.CarRecord)}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	svc := core.NewService(core.ServiceOptions{
		Cars:          cars,
		Users:         memUsers{testEmail: {ID: 1, Email: testEmail, PasswordHash: hash}},
		Tokens:        tokens,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		ImportTimeout: cfg.Upload.Timeout,
	})

	return &testEnv{
		srv:    NewServer(svc, tokens, fakePinger{}, cfg),
		cars:   cars,
		tokens: tokens,
		cfg:    cfg,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) bearer(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return "Bearer " + token
}

// uploadRequest builds an authenticated multipart upload.
func (e *testEnv) uploadRequest(t *testing.T, filename, contentType, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("note", "ignored"); err != nil {
		t.Fatal(err)
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/cars/upload-csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", e.bearer(t))
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover files", len(entries))
	}
}

func loginJSON(email, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(loginJSON(testEmail, testPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool   `json:"success"`
		StatusCode int    `json:"statusCode"`
		Message    string `json:"message"`
		Data       struct {
			User        loginUser `json:"user"`
			AccessToken string    `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.StatusCode != 200 || resp.Message != "User logged in successfully" {
		t.Errorf("envelope = %+v", resp)
	}
	if resp.Data.User.ID != 1 || resp.Data.User.Email != testEmail {
		t.Errorf("user = %+v", resp.Data.User)
	}
	if id, err := env.tokens.Parse(resp.Data.AccessToken); err != nil || id != 1 {
		t.Errorf("token parses to %d, %v", id, err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "accessToken" || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	if cookies[0].Value != resp.Data.AccessToken {
		t.Error("cookie should carry the access token")
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantMsg    string
	}{
		{"missing password", loginJSON(testEmail, ""), http.StatusBadRequest, "Email and password are required"},
		{"blank email", loginJSON("  ", testPassword), http.StatusBadRequest, "Email and password are required"},
		{"unknown user", loginJSON("nobody@example.com", testPassword), http.StatusUnauthorized, "User doesn't exists"},
		{"wrong password", loginJSON(testEmail, "nope"), http.StatusUnauthorized, "Invalid password"},
		{"empty body", httptest.NewRequest(http.MethodPost, "/auth/login", nil), http.StatusBadRequest, "Email and password are required"},
		{"bad json", httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{")), http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(tt.req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeError(t, rec)
			if resp.Success || resp.StatusCode != tt.wantStatus || resp.Message != tt.wantMsg {
				t.Errorf("body = %+v", resp)
			}
			if resp.Detail != "" {
				t.Error("detail must not be exposed outside development")
			}
		})
	}
}

func TestLogin_FormRedirects(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	rec := env.do(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cars/import" {
		t.Errorf("Location = %q", loc)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("expected auth cookie")
	}
}

func TestLogin_FormFailureRendersPage(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {testEmail}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	rec := env.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid password") {
		t.Error("login page should show the failure")
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v, want expired auth cookie", cookies)
	}
}

func TestUpload_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	req := env.uploadRequest(t, "cars.csv", "text/csv", carsHeader)
	req.Header.Del("Authorization")

	rec := env.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(env.cars.cars) != 0 {
		t.Error("nothing should be inserted")
	}
}

func TestUpload_Report(t *testing.T) {
	env := newTestEnv(t)
	csv := carsHeader +
		"Toyota,Camry,,Gas,Sedan,4\n" +
		"Toyota,Camry,,Gas,Sedan,4\n" +
		",Civic,,Gas,Sedan,4\n"

	rec := env.do(env.uploadRequest(t, "cars.csv", "text/csv", csv))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    core.ImportReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Message != "CSV import completed" {
		t.Errorf("envelope = %+v", resp)
	}

	r := resp.Data
	if r.TotalRows != 3 || r.ValidRows != 2 || r.InsertedRows != 1 || r.DuplicateRows != 1 || r.InvalidRows != 1 || r.Errors != 0 {
		t.Errorf("report counts = %+v", r)
	}
	if len(r.InvalidRowDetails) != 1 || r.InvalidRowDetails[0].Row != 3 {
		t.Errorf("invalid rows = %+v", r.InvalidRowDetails)
	}
	if len(r.DuplicateDetails) != 1 || r.DuplicateDetails[0].Row != 2 {
		t.Errorf("duplicates = %+v", r.DuplicateDetails)
	}
	assertTempDirEmpty(t, env.cfg.Upload.TempDir)
}

func TestUpload_CookieAuthAndHTMLReport(t *testing.T) {
	env := newTestEnv(t)
	req := env.uploadRequest(t, "cars.csv", "text/csv", carsHeader+"Honda,Civic,Sport,Gas,Sedan,4\n")
	token := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	req.Header.Del("Authorization")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	req.Header.Set("Accept", "text/html")

	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Import report") {
		t.Error("expected report page")
	}
}

func TestUpload_RequestErrors(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		content     string
		wantStatus  int
		wantMsg     string
		wantCode    string
	}{
		{"no file", "", "", "", http.StatusBadRequest, "No file uploaded", "FILE004"},
		{"not csv", "cars.txt", "text/plain", carsHeader, http.StatusBadRequest, "Only CSV files are allowed", "FILE005"},
		{"too large", "cars.csv", "text/csv", carsHeader + strings.Repeat("Toyota,Camry,,Gas,Sedan,4\n", 100), http.StatusRequestEntityTooLarge, "", "FILE001"},
		{"bare quote", "cars.csv", "text/csv", carsHeader + "Toy\"ota,Camry,,Gas,Sedan,4\n", http.StatusBadRequest, "Error parsing CSV: ", "FILE002"},
		{"invalid utf-8", "cars.csv", "text/csv", carsHeader + "Toyota,Cam\xffry,,Gas,Sedan,4\n", http.StatusBadRequest, "Error parsing CSV: ", "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(env.uploadRequest(t, tt.filename, tt.contentType, tt.content))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if !strings.HasPrefix(resp.Message, tt.wantMsg) {
				t.Errorf("message = %q, want prefix %q", resp.Message, tt.wantMsg)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if len(env.cars.cars) != 0 {
				t.Error("nothing should be inserted")
			}
			assertTempDirEmpty(t, env.cfg.Upload.TempDir)
		})
	}
}

func TestUpload_OctetStreamWithCSVExtension(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(env.uploadRequest(t, "CARS.CSV", "application/octet-stream", carsHeader+"Honda,Civic,,Gas,Sedan,4\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/cars/upload-csv", strings.NewReader(carsHeader))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", env.bearer(t))

	rec := env.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpload_TooManyImports(t *testing.T) {
	env := newTestEnv(t)
	release, err := env.srv.service.Limiter().Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	rec := env.do(env.uploadRequest(t, "cars.csv", "text/csv", carsHeader+"Honda,Civic,,Gas,Sedan,4\n"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "UPL001" {
		t.Errorf("code = %q, want UPL001", resp.Code)
	}
	assertTempDirEmpty(t, env.cfg.Upload.TempDir)
}

func TestRespondError_DetailInDevelopment(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.Environment = "development" })

	rec := env.do(env.uploadRequest(t, "cars.txt", "text/plain", carsHeader))
	resp := decodeError(t, rec)
	if resp.Detail == "" {
		t.Error("development responses should include detail")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"api error", &APIError{StatusCode: http.StatusTeapot, Message: "x"}, http.StatusTeapot},
		{"stream error", &core.StreamError{Err: errors.New("bad")}, http.StatusBadRequest},
		{"login error", &core.LoginError{Message: "Invalid password"}, http.StatusUnauthorized},
		{"wrapped too large", fmt.Errorf("read: %w", core.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{"busy", core.ErrTooManyImports, http.StatusTooManyRequests},
		{"deadline", fmt.Errorf("import cancelled at row 5: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusServiceUnavailable},
		{"timed out mid-persist", &core.CancelledError{AtRow: 4, Inserted: 3, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := classify(tt.err); status != tt.wantStatus {
				t.Errorf("classify() status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestIsCSV(t *testing.T) {
	tests := []struct {
		name, contentType string
		want              bool
	}{
		{"cars.csv", "text/csv", true},
		{"cars.CSV", "application/octet-stream", true},
		{"cars.dat", "text/csv; charset=utf-8", true},
		{"cars.txt", "text/plain", false},
		{"cars", "", false},
	}
	for _, tt := range tests {
		if got := isCSV(tt.name, tt.contentType); got != tt.want {
			t.Errorf("isCSV(%q, %q) = %v, want %v", tt.name, tt.contentType, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.ImportCapacity != 1 {
		t.Errorf("health = %+v", resp)
	}

	env.srv.db = fakePinger{err: errors.New("connection refused")}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/auth/login"`) {
		t.Errorf("login page: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/cars/import", nil)
	req.Header.Set("Authorization", env.bearer(t))
	rec = env.do(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `enctype="multipart/form-data"`) {
		t.Errorf("import page: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1 KiB") {
		t.Error("import page should show the size limit")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("root redirect = %q, want /login", loc)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestPageEscapesText(t *testing.T) {
	var buf bytes.Buffer
	if err := templates.Login(`<script>alert(1)</script>`).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("message was not escaped")
	}
}

func TestUpload_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	})
	csv := carsHeader + "Honda,Civic,,Gas,Sedan,4\n"

	if rec := env.do(env.uploadRequest(t, "cars.csv", "text/csv", csv)); rec.Code != http.StatusOK {
		t.Fatalf("first upload status = %d", rec.Code)
	}

	rec := env.do(env.uploadRequest(t, "cars.csv", "text/csv", csv))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// The general limit is separate from the upload limit.
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil)); rec.Code != http.StatusOK {
		t.Errorf("login page status = %d, want 200", rec.Code)
	}
}

func TestPreview_WritesNothing(t *testing.T) {
	env := newTestEnv(t)
	req := env.uploadRequest(t, "cars.csv", "text/csv", carsHeader+"Honda,Civic,,Gas,Sedan,4\nHonda,Civic,,Gas,Sedan,4\n")
	req.URL.Path = "/cars/preview-csv"

	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string            `json:"message"`
		Data    core.ImportReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "CSV preview completed" || !resp.Data.Preview {
		t.Errorf("response = %+v", resp)
	}
	if resp.Data.InsertedRows != 1 || resp.Data.DuplicateRows != 1 {
		t.Errorf("preview counts = %+v", resp.Data)
	}
	if len(env.cars.cars) != 0 {
		t.Error("preview must not insert")
	}
	assertTempDirEmpty(t, env.cfg.Upload.TempDir)
}

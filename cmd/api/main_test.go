package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coally/coally-api/internal/auth"
	"github.com/coally/coally-api/internal/config"
	"github.com/coally/coally-api/internal/memstore"
	"github.com/coally/coally-api/internal/metrics"
	"github.com/coally/coally-api/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code       string `json:"code"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:             "test",
		BaseAPI:            "/api/v1",
		MaxRequestBodySize: 1 << 20,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	recorder := metrics.NewInMemory()

	authService := service.NewAuthService(store, auth.NewTokenIssuer("test-secret", time.Hour), service.AuthOptions{
		BcryptCost:    4,
		SingleSession: true,
		Metrics:       recorder,
		Logger:        logger,
	})

	router, err := newRouter(cfg, routerDeps{
		Auth:      authService,
		Tasks:     service.NewTaskService(store, recorder, nil),
		Store:     store,
		StoreName: "memory",
		Metrics:   recorder,
	}, logger)
	if err != nil {
		t.Fatalf("newRouter() error: %v", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func TestEndToEnd_TaskFlow(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"alice","email":"Alice@Example.com","password":"p4ssw0rd"}`)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, body %+v", status, env)
	}
	var user map[string]any
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Errorf("registered user = %v", user)
	}
	for _, secret := range []string{"password", "token"} {
		if _, ok := user[secret]; ok {
			t.Errorf("register response exposes %s", secret)
		}
	}

	status, env = call(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		`{"identifier":"alice","password":"p4ssw0rd"}`)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body %+v", status, env)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("login token missing: %v", err)
	}

	// Raw token, no "Bearer " prefix.
	status, env = call(t, srv, http.MethodPost, "/api/v1/task/create", login.Token, `{"title":"buy milk"}`)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body %+v", status, env)
	}
	var task struct {
		ID        string `json:"_id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.Title != "buy milk" || task.Completed {
		t.Errorf("created task = %+v", task)
	}

	status, env = call(t, srv, http.MethodGet, "/api/v1/task/", "Bearer "+login.Token, "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if !strings.Contains(string(env.Data), task.ID) {
		t.Errorf("list does not contain %s: %s", task.ID, env.Data)
	}

	status, _ = call(t, srv, http.MethodDelete, "/api/v1/task/delete/"+task.ID, login.Token, "")
	if status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}

	status, env = call(t, srv, http.MethodGet, "/api/v1/task/get/"+task.ID, login.Token, "")
	if status != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", status)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" || env.Message != "task not found" {
		t.Errorf("get after delete body = %+v", env)
	}
}

func TestEndToEnd_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"task without token", http.MethodGet, "/api/v1/task/", "", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"task with garbage token", http.MethodGet, "/api/v1/task/", "not-a-jwt", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", "", http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodGet, "/api/v1/auth/login", "", "", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"login unknown user", http.MethodPost, "/api/v1/auth/login", "", `{"identifier":"ghost","password":"x"}`, http.StatusNotFound, "NOT_FOUND"},
		{"register bad json", http.MethodPost, "/api/v1/auth/register", "", `{"username":`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, srv, tt.method, tt.path, tt.token, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode || env.Error.StatusCode != tt.wantStatus {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestEndToEnd_OperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/healthz", "/readyz", "/api-docs/openapi.json"} {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("GET %s has no X-Request-ID", path)
		}
	}

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "coally_") {
		t.Errorf("metrics output missing coally_ series: %s", body)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"postgres://app:s3cret@db:5432/coally", "postgres://app@db:5432/coally"},
		{"mongodb://:s3cret@mongo:27017", "mongodb://redacted@mongo:27017"},
		{"redis://localhost:6379/0", "redis://localhost:6379/0"},
	}

	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	url := "postgres://app:s3cret@db:5432/coally"
	err := errors.New("dial " + url + " failed: password=s3cret rejected")

	got := sanitizeError(err, url)
	if strings.Contains(got, "s3cret") {
		t.Errorf("sanitizeError leaked secret: %s", got)
	}
	if sanitizeError(nil, url) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zafiri/cms-core/internal/auth"
	"github.com/zafiri/cms-core/internal/content"
	"github.com/zafiri/cms-core/internal/infrastructure/config"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// setupTestDB creates a temp SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			picture_url   TEXT NOT NULL DEFAULT '',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);
		CREATE TABLE refresh_tokens (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			family_id   TEXT NOT NULL,
			token_hash  TEXT NOT NULL UNIQUE,
			expires_at  TEXT NOT NULL,
			revoked     INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		);
		CREATE TABLE records (
			id          TEXT PRIMARY KEY,
			collection  TEXT NOT NULL,
			fields      TEXT NOT NULL DEFAULT '{}',
			attachments TEXT NOT NULL DEFAULT '{}',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return db
}

// testServer creates a Server over a real SQLite database plus an httptest
// listener, with one seeded active admin ("admin" / "test-password-123").
func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	db := setupTestDB(t)
	users := auth.NewUserRepository(db)
	tokens := auth.NewTokenRepository(db)
	records := content.NewRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Events: config.EventsConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:          testJWTSecret,
				AccessTokenTTL:  15,
				RefreshTokenTTL: 60,
			},
		},
		Uploads: config.UploadsConfig{
			Dir:     t.TempDir(),
			MaxSize: 8 << 20,
		},
		Logger:  log,
		Users:   users,
		Tokens:  tokens,
		Records: records,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	seedUser(t, users)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.evCfg, log)
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	return srv, ts
}

func seedUser(t *testing.T, users auth.UserRepository) {
	t.Helper()

	hash, err := auth.HashPassword("test-password-123")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &auth.User{
		Username:     "admin",
		Email:        "admin@zafiri.go.tz",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

// login authenticates against the test server and returns the token pair.
func login(t *testing.T, ts *httptest.Server) (access, refresh string) {
	t.Helper()

	resp := postJSON(t, ts, "/api/login/", "", map[string]string{
		"username": "admin",
		"password": "test-password-123",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decodeBody(t, resp, &body)
	return body.Access, body.Refresh
}

// postJSON sends a POST with a JSON body and optional bearer token.
func postJSON(t *testing.T, ts *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()
	return doJSON(t, ts, http.MethodPost, path, token, body)
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func getWithToken(t *testing.T, ts *httptest.Server, path, token string) *http.Response {
	t.Helper()
	return doJSON(t, ts, http.MethodGet, path, token, nil)
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decoding body %q: %v", data, err)
	}
}

func TestServer_New_RequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{}},
		{"missing users", Deps{Logger: log}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() error = nil, want non-nil")
			}
		})
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := testServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/health/")
	if err != nil {
		t.Fatalf("GET /api/health/: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	_, ts := testServer(t)

	paths := []string{"/api/profile/", "/api/news/", "/api/staff/"}
	for _, path := range paths {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestServer_ErrorEnvelope(t *testing.T) {
	_, ts := testServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/news/")
	if err != nil {
		t.Fatalf("GET /api/news/: %v", err)
	}
	defer resp.Body.Close()

	var e Error
	decodeBody(t, resp, &e)
	if e.Status != http.StatusUnauthorized {
		t.Errorf("envelope status = %d, want 401", e.Status)
	}
	if e.Code != ErrCodeUnauthorized {
		t.Errorf("envelope code = %q, want %q", e.Code, ErrCodeUnauthorized)
	}
	if e.Message == "" {
		t.Error("envelope message is empty")
	}
}

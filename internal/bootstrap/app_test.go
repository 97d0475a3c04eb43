package bootstrap

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawelszalw/HireTree/internal/shared/config"
)

func buildTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	app, err := Build(config.Config{
		Env:             "dev",
		AIProvider:      "mock",
		CORSAllowOrigin: []string{"http://localhost:5173"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return app
}

func TestBuildWiresMemoryStackInDev(t *testing.T) {
	app := buildTestApp(t)

	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if app.Router == nil || app.ProfileService == nil || app.UsersService == nil {
		t.Fatalf("expected fully wired app")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	_, err := Build(config.Config{Env: "dev", AIProvider: "skynet"})
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestGuestCanUploadCVEndToEnd(t *testing.T) {
	app := buildTestApp(t)

	var docx bytes.Buffer
	zw := zip.NewWriter(&docx)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	fmt.Fprint(f, `<?xml version="1.0"?><w:document><w:body><w:p><w:r><w:t>Go developer since 2019, Postgres and Kubernetes</w:t></w:r></w:p></w:body></w:document>`)
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "resume.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(docx.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Guest-Id", "33333333-3333-3333-3333-333333333333")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		IsActive bool   `json:"isActive"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.IsActive || payload.Source != "cv" {
		t.Fatalf("unexpected resume payload: %s", resp.Body.String())
	}

	// Without identity the same request is rejected.
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/cv", nil)
	resp2 := httptest.NewRecorder()
	app.Router.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp2.Code)
	}
}

package handlers

import (
	"archive/zip"
	"bytes"
	"net/http"
	"testing"
	"time"

	"server/internal/domain"
	"server/internal/quota"
)

func seedProject(env *testEnv) *domain.Project {
	p := &domain.Project{
		ID:        "p1",
		UserID:    "u1",
		Name:      "demo",
		Framework: "react",
		Files:     []domain.ProjectFile{{Path: "index.html", Content: "<html/>"}},
		CreatedAt: time.Now().UTC(),
	}
	env.projects.byID[p.ID] = p
	return p
}

func TestGetProject(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)

	rec := doJSON(t, env.router, http.MethodGet, "/project/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["id"] != "p1" || body["userId"] != "u1" {
		t.Fatalf("unexpected body: %v", body)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/project/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)

	rec := doJSON(t, env.router, http.MethodGet, "/projects/u1", nil)
	body := decodeBody(t, rec)
	projects, _ := body["projects"].([]any)
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %v", body)
	}

	rec = doJSON(t, env.router, http.MethodGet, "/projects/other", nil)
	body = decodeBody(t, rec)
	if projects, _ := body["projects"].([]any); len(projects) != 0 {
		t.Fatalf("expected empty list, got %v", body)
	}
}

func TestUpdateProjectOwnership(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)

	rec := doJSON(t, env.router, http.MethodPut, "/project/p1", map[string]any{
		"userId": "intruder",
		"name":   "stolen",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}

	rec = doJSON(t, env.router, http.MethodPut, "/project/p1", map[string]any{
		"userId": "u1",
		"name":   "renamed",
		"files":  []domain.ProjectFile{{Path: "new.html", Content: "x"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if env.projects.byID["p1"].Name != "renamed" {
		t.Fatal("rename not applied")
	}
	if _, ok := env.store.written["p1"]; !ok {
		t.Fatal("updated files should be written to disk")
	}
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)

	rec := doJSON(t, env.router, http.MethodDelete, "/project/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if len(env.store.removed) != 1 || env.store.removed[0] != "p1" {
		t.Fatal("on-disk files should be removed with the document")
	}

	rec = doJSON(t, env.router, http.MethodDelete, "/project/p1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", rec.Code)
	}
}

func TestDownloadProject(t *testing.T) {
	env := newTestEnv(t)
	seedProject(env)

	rec := doJSON(t, env.router, http.MethodGet, "/download/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	r, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	if len(r.File) != 1 || r.File[0].Name != "index.html" {
		t.Fatalf("unexpected archive contents: %+v", r.File)
	}
}

func TestFixProject(t *testing.T) {
	env := newTestEnv(t)
	p := seedProject(env)
	p.Files = []domain.ProjectFile{{Path: "src/App.jsx", Content: "x"}}

	rec := doJSON(t, env.router, http.MethodPost, "/fix-project/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	fixes, _ := body["fixes"].([]any)
	if len(fixes) == 0 {
		t.Fatal("expected applied fixes")
	}
	if len(env.projects.byID["p1"].Fixes) == 0 {
		t.Fatal("fix history should be persisted")
	}
	if _, ok := env.store.written["p1"]; !ok {
		t.Fatal("fixed files should be written to disk")
	}
}

func TestSimpleCheck(t *testing.T) {
	env := newTestEnv(t)
	env.gate.status = &quota.Status{
		Record: &domain.UserQuota{
			UserID:              "u1",
			Plan:                domain.UserPlanFree,
			MaxDailyGenerations: 3,
			DailyGenerations:    3,
		},
	}

	rec := doJSON(t, env.router, http.MethodGet, "/simple-check/u1", nil)
	body := decodeBody(t, rec)
	if body["canGenerate"] != false {
		t.Fatalf("expected canGenerate false, got %v", body)
	}

	env.gate.status = nil
	env.gate.statusErr = domain.ErrNotFound
	rec = doJSON(t, env.router, http.MethodGet, "/simple-check/new-user", nil)
	body = decodeBody(t, rec)
	if body["canGenerate"] != true {
		t.Fatalf("unknown user should read as allowed, got %v", body)
	}
}

func TestDebugUser(t *testing.T) {
	env := newTestEnv(t)
	env.gate.status = &quota.Status{
		Record: &domain.UserQuota{
			UserID:              "u1",
			Plan:                domain.UserPlanPro,
			MaxDailyGenerations: 20,
			DailyGenerations:    7,
			FirstGenerationDate: "2026-08-29T10:00:00Z",
		},
		Remaining: 13,
	}

	rec := doJSON(t, env.router, http.MethodGet, "/debug/user/u1", nil)
	body := decodeBody(t, rec)
	if body["plan"] != "pro" || body["remaining"] != float64(13) {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["firstGenerationDate"] != "2026-08-29T10:00:00Z" {
		t.Fatalf("raw timestamps should be surfaced: %v", body)
	}
}

func TestMigrateUsers(t *testing.T) {
	env := newTestEnv(t)
	env.gate.migrated = 4

	rec := doJSON(t, env.router, http.MethodPost, "/migrate-users", nil)
	body := decodeBody(t, rec)
	if body["updated"] != float64(4) || body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

package service

import (
	"context"
	"edu_ai_backend/internal/config"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestReportPostsStatus(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewReportService(config.ReporterConfig{
		BaseURL:     srv.URL + "/",
		SystemToken: "system-token",
		Enabled:     true,
	}, zap.NewNop())

	s.Report(context.Background(), 42, "done", 100, 30)

	if gotPath != "/lesson-topics/42/ai-status" {
		t.Fatalf("posted to %q", gotPath)
	}
	if gotAuth != "Bearer system-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody["status"] != "done" || gotBody["progress"] != float64(100) || gotBody["questionCount"] != float64(30) {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
}

func TestReportOmitsNegativeCount(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
	}))
	defer srv.Close()

	s := NewReportService(config.ReporterConfig{BaseURL: srv.URL, SystemToken: "t", Enabled: true}, zap.NewNop())
	s.Report(context.Background(), 7, "processing", 30, -1)

	if _, present := gotBody["questionCount"]; present {
		t.Fatalf("questionCount should be omitted: %v", gotBody)
	}
}

func TestReportDisabled(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewReportService(config.ReporterConfig{BaseURL: srv.URL, Enabled: false}, zap.NewNop())
	s.Report(context.Background(), 1, "done", 100, 5)

	if called {
		t.Fatalf("disabled reporter should not call the platform")
	}
}

func TestReportSwallowsFailures(t *testing.T) {
	s := NewReportService(config.ReporterConfig{
		BaseURL: "http://127.0.0.1:1",
		Enabled: true,
	}, zap.NewNop())

	// Must not panic or block the run.
	s.Report(context.Background(), 1, "failed", 100, -1)
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/saga-engine/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHealthHandler_Healthy(t *testing.T) {
	store := storage.NewMockStore()
	handler := NewHealthHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy status, got %q", resp.Status)
	}
	if resp.Service != "saga-engine" {
		t.Errorf("Expected service saga-engine, got %q", resp.Service)
	}
	if resp.Components["storage"] != "healthy" {
		t.Errorf("Expected healthy storage component, got %q", resp.Components["storage"])
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	store := storage.NewMockStore()
	store.SetPingError(errors.New("connection refused"))
	handler := NewHealthHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Expected degraded status, got %q", resp.Status)
	}
	if resp.Components["storage"] != "unhealthy" {
		t.Errorf("Expected unhealthy storage component, got %q", resp.Components["storage"])
	}
}

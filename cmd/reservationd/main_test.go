package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-reservation/internal/config"
	"github.com/example/campus-reservation/internal/lock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore(t *testing.T) {
	t.Run("memory driver", func(t *testing.T) {
		storage, err := openStore(context.Background(), config.Config{StorageDriver: config.StorageMemory}, testLogger())
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		defer storage.Close()

		campuses, err := storage.ListCampuses(context.Background())
		if err != nil || len(campuses) == 0 {
			t.Fatalf("expected seeded campuses, got %v (err=%v)", campuses, err)
		}
	})

	t.Run("sqlite driver applies migrations", func(t *testing.T) {
		cfg := config.Config{
			StorageDriver:     config.StorageSQLite,
			SQLitePath:        filepath.Join(t.TempDir(), "reservations.db"),
			SQLiteBusyTimeout: time.Second,
		}
		storage, err := openStore(context.Background(), cfg, testLogger())
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		defer storage.Close()

		if err := storage.Ping(context.Background()); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
		campuses, err := storage.ListCampuses(context.Background())
		if err != nil || len(campuses) == 0 {
			t.Fatalf("expected seeded campuses, got %v (err=%v)", campuses, err)
		}
	})
}

func TestNewLocker(t *testing.T) {
	locker, closeLocker, err := newLocker(config.Config{LockBackend: config.LockLocal}, testLogger())
	if err != nil {
		t.Fatalf("newLocker returned error: %v", err)
	}
	closeLocker()
	if _, ok := locker.(*lock.Local); !ok {
		t.Fatalf("expected local locker, got %T", locker)
	}

	locker, closeLocker, err = newLocker(config.Config{LockBackend: config.LockRedis, RedisAddr: "127.0.0.1:6379", LockTTL: time.Second}, testLogger())
	if err != nil {
		t.Fatalf("newLocker returned error: %v", err)
	}
	closeLocker()
	if _, ok := locker.(*lock.Redis); !ok {
		t.Fatalf("expected redis locker, got %T", locker)
	}

	if _, _, err := newLocker(config.Config{LockBackend: config.LockRedis}, testLogger()); err == nil {
		t.Fatalf("expected error without redis address")
	}
}

func TestNewHandler(t *testing.T) {
	storage, err := openStore(context.Background(), config.Config{StorageDriver: config.StorageMemory}, testLogger())
	if err != nil {
		t.Fatalf("openStore returned error: %v", err)
	}
	handler := newHandler(config.Config{CampusCacheTTL: time.Minute}, storage, lock.NewLocal(), testLogger())

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected healthz to bypass identity, got %d", health.Code)
	}

	anonymous := httptest.NewRecorder()
	handler.ServeHTTP(anonymous, httptest.NewRequest(http.MethodGet, "/campuses", nil))
	if anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", anonymous.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"campus_id":1,"date":"2024-06-03","start_hour":9,"end_hour":10}`))
	req.Header.Set("X-User-ID", "user-1")
	created := httptest.NewRecorder()
	handler.ServeHTTP(created, req)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}
	if !strings.Contains(created.Body.String(), `"student_id":"anonymous"`) {
		t.Fatalf("expected default student id in %s", created.Body.String())
	}

	managerReq := httptest.NewRequest(http.MethodPost, "/admin/key-managers", strings.NewReader(`{"campus_id":2,"name":"Zhao","contact":"ext 3001"}`))
	managerReq.Header.Set("X-User-ID", "admin")
	manager := httptest.NewRecorder()
	handler.ServeHTTP(manager, managerReq)
	if manager.Code != http.StatusCreated {
		t.Fatalf("expected 201 for key manager, got %d: %s", manager.Code, manager.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/campuses/2/key-managers", nil)
	listReq.Header.Set("X-User-ID", "user-1")
	listed := httptest.NewRecorder()
	handler.ServeHTTP(listed, listReq)
	if listed.Code != http.StatusOK || !strings.Contains(listed.Body.String(), `"name":"Zhao"`) {
		t.Fatalf("expected the campus key manager, got %d: %s", listed.Code, listed.Body.String())
	}
}

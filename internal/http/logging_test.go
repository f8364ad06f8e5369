package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/campus-reservation/internal/persistence/memory"
	"github.com/example/campus-reservation/internal/testfixtures"
)

func decodeLogEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log entry %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestHandlerLogger(t *testing.T) {
	t.Parallel()

	t.Run("prefers the request logger", func(t *testing.T) {
		t.Parallel()
		var requestBuf, fallbackBuf bytes.Buffer
		requestLogger := slog.New(slog.NewJSONHandler(&requestBuf, nil)).With("request_id", 7)
		fallback := slog.New(slog.NewJSONHandler(&fallbackBuf, nil))

		r := httptest.NewRequest(http.MethodDelete, "/admin/blackouts/rule-1", nil)
		r = r.WithContext(ContextWithLogger(r.Context(), requestLogger))
		r.Pattern = "DELETE /admin/blackouts/{id}"

		handlerLogger(r, fallback, "BlackoutHandler", "Delete", "rule_id", "rule-1").Info("blackout rule deleted")

		if fallbackBuf.Len() != 0 {
			t.Fatalf("fallback logger should stay unused, got %s", fallbackBuf.String())
		}
		entries := decodeLogEntries(t, &requestBuf)
		if len(entries) != 1 {
			t.Fatalf("expected one entry, got %d", len(entries))
		}
		entry := entries[0]
		if entry["request_id"] != float64(7) || entry["handler"] != "BlackoutHandler" || entry["operation"] != "Delete" ||
			entry["route"] != "DELETE /admin/blackouts/{id}" || entry["rule_id"] != "rule-1" {
			t.Fatalf("unexpected entry: %v", entry)
		}
	})

	t.Run("falls back without a request logger", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		fallback := slog.New(slog.NewJSONHandler(&buf, nil))

		r := httptest.NewRequest(http.MethodPost, "/reservations", nil)
		handlerLogger(r, fallback, "ReservationHandler", "Create").Info("reservation created")

		entries := decodeLogEntries(t, &buf)
		if len(entries) != 1 {
			t.Fatalf("expected one entry, got %d", len(entries))
		}
		if _, ok := entries[0]["route"]; ok {
			t.Fatalf("unmatched request should carry no route: %v", entries[0])
		}
		if entries[0]["operation"] != "Create" {
			t.Fatalf("unexpected entry: %v", entries[0])
		}
	})
}

func TestKeyManagerHandler_LogsMatchedRoute(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	factory := testfixtures.NewServiceFactory()
	router := NewRouter(RouterConfig{
		KeyManagers: NewKeyManagerHandler(factory.NewKeyManagerService(memory.New()), logger),
		Middleware:  []func(http.Handler) http.Handler{RequestLogger(logger), RequireIdentity(logger)},
	})

	rec := do(t, router, apiRequest{
		method: http.MethodPost,
		path:   "/admin/key-managers",
		user:   "admin",
		body:   `{"campus_id":1,"name":"Wang","contact":"ext 2040"}`,
	})
	expectStatus(t, rec, http.StatusCreated)

	for _, entry := range decodeLogEntries(t, &buf) {
		if entry["msg"] != "key manager created" {
			continue
		}
		if entry["route"] != "POST /admin/key-managers" || entry["handler"] != "KeyManagerHandler" ||
			entry["key_manager_id"] != "id-1" || entry["request_id"] == nil {
			t.Fatalf("unexpected entry: %v", entry)
		}
		return
	}
	t.Fatalf("no key manager entry in %s", buf.String())
}

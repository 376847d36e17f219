package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/salestracker/internal/config"
	"github.com/wolfman30/salestracker/pkg/logging"
)

func TestSetupReminderMetricsExposesMetrics(t *testing.T) {
	handler, m := setupReminderMetrics(&appconfig.Config{MetricsEnabled: true})
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveNotification("reminder", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "salestracker_notifications_sent_total") {
		t.Fatalf("expected notification counter to be exported")
	}
}

func TestSetupReminderMetricsDisabled(t *testing.T) {
	handler, m := setupReminderMetrics(&appconfig.Config{})
	if handler != nil || m != nil {
		t.Fatalf("expected nil handler and metrics when disabled")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nodues/internal/config"
	"nodues/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()

	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func serviceConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Decisions = true
	cfg.Notifications.Terminal = true
	cfg.Notifications.Certificates = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("noop publish should not fail: %v", err)
	}
}

func TestPublishSendsNtfyMessage(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := notifications.NewService(serviceConfig(server.URL))

	err := svc.Publish(context.Background(), notifications.EventDecisionRecorded, notifications.Payload{
		"application_id": "app-1",
		"department":     "University Library",
		"outcome":        "approve",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "No-Dues - Stage Decided" {
		t.Fatalf("unexpected title: %q", got.title)
	}
	if !strings.Contains(got.body, "University Library stage approved") {
		t.Fatalf("unexpected body: %q", got.body)
	}
	if !strings.Contains(got.tags, "decision") {
		t.Fatalf("unexpected tags: %q", got.tags)
	}
}

func TestPublishRejectionUsesHighPriority(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := notifications.NewService(serviceConfig(server.URL))

	err := svc.Publish(context.Background(), notifications.EventApplicationRejected, notifications.Payload{
		"application_id": "app-1",
		"department":     "Hostel Administration",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	if got := (*requests)[0].priority; got != "high" {
		t.Fatalf("expected high priority, got %q", got)
	}
}

func TestPublishHonorsEventToggles(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := serviceConfig(server.URL)
	cfg.Notifications.Decisions = false
	svc := notifications.NewService(cfg)

	err := svc.Publish(context.Background(), notifications.EventDecisionRecorded, notifications.Payload{
		"application_id": "app-1",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("disabled event must not be sent, got %d requests", len(*requests))
	}

	// Terminal events remain enabled independently.
	if err := svc.Publish(context.Background(), notifications.EventApplicationCompleted, notifications.Payload{
		"application_id": "app-1",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected terminal event to be sent, got %d requests", len(*requests))
	}
}

func TestPublishSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	svc := notifications.NewService(serviceConfig(server.URL))
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

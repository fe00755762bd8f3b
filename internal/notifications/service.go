package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nodues/internal/config"
)

const userAgent = "nodues/0.1.0"

// Event enumerates the notification types the coordinator publishes.
type Event string

const (
	EventApplicationSubmitted Event = "application_submitted"
	EventDecisionRecorded     Event = "decision_recorded"
	EventApplicationCompleted Event = "application_completed"
	EventApplicationRejected  Event = "application_rejected"
	EventCertificateReady     Event = "certificate_ready"
	EventError                Event = "error"
	EventTest                 Event = "test"
)

// Payload carries event-specific fields used to build the message.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	endpoint := topic
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://ntfy.sh/" + endpoint
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.eventEnabled(event) {
		return nil
	}
	return n.send(ctx, composeMessage(event, payload))
}

func (n *ntfyService) eventEnabled(event Event) bool {
	switch event {
	case EventApplicationSubmitted, EventDecisionRecorded:
		return n.enabled.Decisions
	case EventApplicationCompleted, EventApplicationRejected:
		return n.enabled.Terminal
	case EventCertificateReady:
		return n.enabled.Certificates
	case EventError:
		return n.enabled.Errors
	}
	return true
}

func composeMessage(event Event, payload Payload) message {
	application := payloadString(payload, "application_id")
	student := payloadString(payload, "student_id")
	department := payloadString(payload, "department")

	switch event {
	case EventApplicationSubmitted:
		return message{
			title: "No-Dues - Application Submitted",
			body:  fmt.Sprintf("Application %s submitted by %s", application, student),
			tags:  []string{"nodues", "application", "submitted"},
		}
	case EventDecisionRecorded:
		outcome := payloadString(payload, "outcome")
		verb := "approved"
		if outcome == "reject" {
			verb = "rejected"
		}
		return message{
			title: "No-Dues - Stage Decided",
			body:  fmt.Sprintf("Application %s: %s stage %s", application, department, verb),
			tags:  []string{"nodues", "decision", verb},
		}
	case EventApplicationCompleted:
		return message{
			title: "No-Dues - Clearance Complete",
			body:  fmt.Sprintf("Application %s cleared all departments", application),
			tags:  []string{"nodues", "application", "completed"},
		}
	case EventApplicationRejected:
		return message{
			title:    "No-Dues - Application Rejected",
			body:     fmt.Sprintf("Application %s rejected by %s", application, department),
			tags:     []string{"nodues", "application", "rejected"},
			priority: "high",
		}
	case EventCertificateReady:
		number := payloadString(payload, "certificate_number")
		return message{
			title: "No-Dues - Certificate Ready",
			body:  fmt.Sprintf("Certificate %s issued for application %s", number, application),
			tags:  []string{"nodues", "certificate", "issued"},
		}
	case EventError:
		return message{
			title:    "No-Dues - Error",
			body:     fmt.Sprintf("%s: %s", payloadString(payload, "context"), payloadString(payload, "error")),
			tags:     []string{"nodues", "error"},
			priority: "high",
		}
	case EventTest:
		return message{
			title: "No-Dues - Test",
			body:  "Test notification from nodues",
			tags:  []string{"nodues", "test"},
		}
	}
	return message{
		title: "No-Dues",
		body:  fmt.Sprintf("Event %s for application %s", event, application),
		tags:  []string{"nodues"},
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch value := payload[key].(type) {
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	case error:
		return value.Error()
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

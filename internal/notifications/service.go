package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"batchscribe/internal/config"
)

const userAgent = "batchscribe"

// RunReport is the outcome of a batch as seen by a notifier.
type RunReport struct {
	Model     string
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
	Elapsed   time.Duration
	JobDir    string
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunStarted(ctx context.Context, model string, files int) error
	NotifyRunCompleted(ctx context.Context, report RunReport) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyRunStarted(ctx context.Context, model string, files int) error {
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	data := payload{
		title:   "batchscribe - Run Started",
		message: fmt.Sprintf("Transcribing %d %s with the %s model", files, noun, strings.TrimSpace(model)),
		tags:    []string{"batchscribe", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report RunReport) error {
	duration := report.Elapsed.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	data := payload{tags: []string{"batchscribe", "run", "completed"}}
	switch {
	case report.Cancelled > 0:
		data.title = "batchscribe - Run Interrupted"
		data.message = fmt.Sprintf("%d of %d transcribed before interruption (%s)", report.Succeeded, report.Total, durationText)
		data.tags = append(data.tags, "interrupted")
	case report.Failed > 0:
		data.title = "batchscribe - Run Complete (with errors)"
		data.message = fmt.Sprintf("%d succeeded, %d failed in %s", report.Succeeded, report.Failed, durationText)
		data.priority = "high"
	default:
		data.title = "batchscribe - Run Complete"
		data.message = fmt.Sprintf("%d transcribed with %s in %s", report.Succeeded, report.Model, durationText)
	}
	if report.JobDir != "" {
		data.message = fmt.Sprintf("%s\nJob: %s", data.message, report.JobDir)
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "batchscribe - Error",
		message:  builder.String(),
		tags:     []string{"batchscribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "batchscribe - Test",
		message:  "Notification system test",
		tags:     []string{"batchscribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

func (noopService) Enabled() bool                                       { return false }
func (noopService) NotifyRunStarted(context.Context, string, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunReport) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }

package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"batchscribe/internal/config"
	"batchscribe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if svc.Enabled() {
		t.Fatal("expected noop service without a topic")
	}
	if err := svc.NotifyRunCompleted(context.Background(), notifications.RunReport{Total: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "run started",
			send: func(s notifications.Service) error {
				return s.NotifyRunStarted(context.Background(), "small", 3)
			},
			expectTitle:   "batchscribe - Run Started",
			expectMessage: "Transcribing 3 files with the small model",
			expectTags:    "batchscribe,run,started",
		},
		{
			name: "run completed",
			send: func(s notifications.Service) error {
				return s.NotifyRunCompleted(context.Background(), notifications.RunReport{
					Model: "small", Total: 2, Succeeded: 2, Elapsed: 95 * time.Second, JobDir: "/in/2026-10-18-1",
				})
			},
			expectTitle:   "batchscribe - Run Complete",
			expectMessage: "2 transcribed with small in 1m35s\nJob: /in/2026-10-18-1",
			expectTags:    "batchscribe,run,completed",
		},
		{
			name: "run completed with errors",
			send: func(s notifications.Service) error {
				return s.NotifyRunCompleted(context.Background(), notifications.RunReport{
					Model: "base", Total: 3, Succeeded: 1, Failed: 2, Elapsed: 10 * time.Second,
				})
			},
			expectTitle:    "batchscribe - Run Complete (with errors)",
			expectMessage:  "1 succeeded, 2 failed in 10s",
			expectTags:     "batchscribe,run,completed",
			expectPriority: "high",
		},
		{
			name: "run interrupted",
			send: func(s notifications.Service) error {
				return s.NotifyRunCompleted(context.Background(), notifications.RunReport{
					Total: 4, Succeeded: 1, Cancelled: 3,
				})
			},
			expectTitle:   "batchscribe - Run Interrupted",
			expectMessage: "1 of 4 transcribed before interruption (0s)",
			expectTags:    "batchscribe,run,completed,interrupted",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("model not found"), "engine load")
			},
			expectTitle:    "batchscribe - Error",
			expectMessage:  "Error during engine load: model not found",
			expectTags:     "batchscribe,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if !svc.Enabled() {
				t.Fatal("expected ntfy service")
			}
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is reserved", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic is reserved") {
		t.Fatalf("unexpected error %v", err)
	}
}

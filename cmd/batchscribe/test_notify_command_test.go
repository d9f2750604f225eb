package main

import "testing"

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	code, stdout, _ := runCLI(t, "--config", env.configPath, "test-notify")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	requireContains(t, stdout, "Notifications are disabled")
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"nodues/internal/config"
	"nodues/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestCLISubmitApproveShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "submit", "student-1")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	requireContains(t, out, "submitted for student student-1")
	requireContains(t, out, "Awaiting decision from library")

	applicationID := extractApplicationID(t, out)

	out, err = runCLI(t, env.configPath, "approve", applicationID, "library", "--actor", "lib-1")
	if err != nil {
		t.Fatalf("approve: %v\n%s", err, out)
	}
	requireContains(t, out, "Stage library approved by lib-1")
	requireContains(t, out, "Awaiting decision from hostel")

	out, err = runCLI(t, env.configPath, "show", applicationID)
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	requireContains(t, out, "student-1")
	requireContains(t, out, "University Library")
	requireContains(t, out, "approved")

	out, err = runCLI(t, env.configPath, "history", applicationID)
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	requireContains(t, out, "application_submitted")
	requireContains(t, out, "stage_approved")
}

func TestCLIRejectRequiresComment(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "submit", "student-2")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	applicationID := extractApplicationID(t, out)

	if _, err := runCLI(t, env.configPath, "reject", applicationID, "library", "--actor", "lib-1"); err == nil {
		t.Fatal("reject without comment must fail")
	}

	out, err = runCLI(t, env.configPath, "reject", applicationID, "library",
		"--actor", "lib-1", "--comment", "books overdue")
	if err != nil {
		t.Fatalf("reject: %v\n%s", err, out)
	}
	requireContains(t, out, "Application rejected")
}

func TestCLICompletionIssuesCertificate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "submit", "student-3")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	applicationID := extractApplicationID(t, out)

	for _, step := range []struct{ department, actor string }{
		{"library", "lib-1"},
		{"hostel", "warden-1"},
		{"accounts", "acct-1"},
	} {
		out, err = runCLI(t, env.configPath, "approve", applicationID, step.department, "--actor", step.actor)
		if err != nil {
			t.Fatalf("approve %s: %v\n%s", step.department, err, out)
		}
	}
	requireContains(t, out, "All departments cleared")

	out, err = runCLI(t, env.configPath, "certificates", "show", applicationID)
	if err != nil {
		t.Fatalf("certificates show: %v\n%s", err, out)
	}
	requireContains(t, out, "Certificate: ND-")

	out, err = runCLI(t, env.configPath, "certificates", "retry")
	if err != nil {
		t.Fatalf("certificates retry: %v\n%s", err, out)
	}
	requireContains(t, out, "No certificates were missing")
}

func TestCLIListFiltersByStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "submit", "student-4")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}

	out, err = runCLI(t, env.configPath, "list", "--status", "in_progress")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	requireContains(t, out, "student-4")

	out, err = runCLI(t, env.configPath, "list", "--status", "completed")
	if err != nil {
		t.Fatalf("list completed: %v\n%s", err, out)
	}
	requireContains(t, out, "No applications found")

	if _, err := runCLI(t, env.configPath, "list", "--status", "bogus"); err == nil {
		t.Fatal("unknown status filter must fail")
	}
}

// extractApplicationID pulls the UUID out of the submit confirmation line.
func extractApplicationID(t *testing.T, output string) string {
	t.Helper()

	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Application ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			return fields[1]
		}
	}
	t.Fatalf("no application id in output:\n%s", output)
	return ""
}

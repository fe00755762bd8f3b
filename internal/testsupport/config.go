// Package testsupport provides shared fixtures for clearance tests: temp
// configurations, store lifecycles, and seeded applications.
package testsupport

import (
	"path/filepath"
	"testing"

	"nodues/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and a compact three-department chain with one approver per department.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CertificateDir = filepath.Join(base, "certificates")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Departments = []config.Department{
		{ID: "library", Role: "librarian", Position: 1, Label: "University Library"},
		{ID: "hostel", Role: "warden", Position: 2, Label: "Hostel Administration"},
		{ID: "accounts", Role: "accounts_officer", Position: 3, Label: "Finance & Accounts"},
	}
	cfg.Approvers = []config.Approver{
		{ID: "lib-1", Name: "Library Approver", Role: "librarian", Department: "library"},
		{ID: "warden-1", Name: "Hostel Approver", Role: "warden", Department: "hostel"},
		{ID: "acct-1", Name: "Accounts Approver", Role: "accounts_officer", Department: "accounts"},
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDepartments replaces the department chain on the test config.
func WithDepartments(departments ...config.Department) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Departments = departments
	}
}

// WithApprovers replaces the approver directory on the test config.
func WithApprovers(approvers ...config.Approver) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Approvers = approvers
	}
}

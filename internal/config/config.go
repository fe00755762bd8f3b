package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	CertificateDir string `toml:"certificate_dir"`
	LogDir         string `toml:"log_dir"`
}

// Department declares one clearance stage: which role signs it off and where
// it sits in the approval sequence.
type Department struct {
	ID       string `toml:"id"`
	Role     string `toml:"role"`
	Position int    `toml:"position"`
	Label    string `toml:"label"`
}

// Approver is one entry in the identity directory.
type Approver struct {
	ID         string `toml:"id"`
	Name       string `toml:"name"`
	Role       string `toml:"role"`
	Department string `toml:"department"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Decisions          bool   `toml:"decisions"`
	Terminal           bool   `toml:"terminal"`
	Certificates       bool   `toml:"certificates"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Certificates contains configuration for completion certificate artifacts.
type Certificates struct {
	Issuer               string `toml:"issuer"`
	NumberPrefix         string `toml:"number_prefix"`
	RetryIntervalSeconds int    `toml:"retry_interval_seconds"`
}

// Logging contains logger construction settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Departments   []Department  `toml:"departments"`
	Approvers     []Approver    `toml:"approvers"`
	Notifications Notifications `toml:"notifications"`
	Certificates  Certificates  `toml:"certificates"`
	Logging       Logging       `toml:"logging"`
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/nodues/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Array tables append to pre-seeded slices during decode, so the
		// default chain is cleared first and restored if the file omits it.
		cfg.Departments = nil

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if len(cfg.Departments) == 0 {
			cfg.Departments = Default().Departments
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nodues.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	return abs, nil
}

// EnsureDirectories creates the directories the clearance system writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.CertificateDir, c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the clearance SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "clearance.db")
}

// LockPath returns the location of the worker lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "nodues-worker.lock")
}

func (c *Config) normalize() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.data_dir", &c.Paths.DataDir},
		{"paths.certificate_dir", &c.Paths.CertificateDir},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := ExpandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	for i := range c.Departments {
		c.Departments[i].ID = strings.ToLower(strings.TrimSpace(c.Departments[i].ID))
		c.Departments[i].Role = strings.ToLower(strings.TrimSpace(c.Departments[i].Role))
		c.Departments[i].Label = strings.TrimSpace(c.Departments[i].Label)
	}
	for i := range c.Approvers {
		c.Approvers[i].ID = strings.TrimSpace(c.Approvers[i].ID)
		c.Approvers[i].Name = strings.TrimSpace(c.Approvers[i].Name)
		c.Approvers[i].Role = strings.ToLower(strings.TrimSpace(c.Approvers[i].Role))
		c.Approvers[i].Department = strings.ToLower(strings.TrimSpace(c.Approvers[i].Department))
	}
	return nil
}

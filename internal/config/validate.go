package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDepartments(); err != nil {
		return err
	}
	if err := c.validateApprovers(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateCertificates(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.CertificateDir) == "" {
		return fmt.Errorf("paths.certificate_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir is required")
	}
	return nil
}

func (c *Config) validateDepartments() error {
	if len(c.Departments) == 0 {
		return fmt.Errorf("departments: at least one department is required")
	}
	ids := make(map[string]struct{}, len(c.Departments))
	positions := make(map[int]string, len(c.Departments))
	for _, dept := range c.Departments {
		if dept.ID == "" {
			return fmt.Errorf("departments: department id is required")
		}
		if _, dup := ids[dept.ID]; dup {
			return fmt.Errorf("departments: duplicate department %q", dept.ID)
		}
		ids[dept.ID] = struct{}{}
		if dept.Role == "" {
			return fmt.Errorf("departments: %s has no approval role", dept.ID)
		}
		if dept.Position <= 0 {
			return fmt.Errorf("departments: %s has invalid position %d", dept.ID, dept.Position)
		}
		if prior, dup := positions[dept.Position]; dup {
			return fmt.Errorf("departments: %s and %s share position %d", prior, dept.ID, dept.Position)
		}
		positions[dept.Position] = dept.ID
	}
	for pos := 1; pos <= len(c.Departments); pos++ {
		if _, ok := positions[pos]; !ok {
			return fmt.Errorf("departments: sequence has a gap at position %d", pos)
		}
	}
	return nil
}

func (c *Config) validateApprovers() error {
	known := make(map[string]struct{}, len(c.Departments))
	for _, dept := range c.Departments {
		known[dept.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(c.Approvers))
	for _, approver := range c.Approvers {
		if approver.ID == "" {
			return fmt.Errorf("approvers: approver id is required")
		}
		if _, dup := seen[approver.ID]; dup {
			return fmt.Errorf("approvers: duplicate approver %q", approver.ID)
		}
		seen[approver.ID] = struct{}{}
		if approver.Role == "" {
			return fmt.Errorf("approvers: %s has no role", approver.ID)
		}
		if approver.Department == "" {
			return fmt.Errorf("approvers: %s has no department", approver.ID)
		}
		if _, ok := known[approver.Department]; !ok {
			return fmt.Errorf("approvers: %s references unknown department %q", approver.ID, approver.Department)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return fmt.Errorf("notifications.request_timeout must not be negative")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return fmt.Errorf("notifications.dedup_window_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateCertificates() error {
	if strings.TrimSpace(c.Certificates.NumberPrefix) == "" {
		return fmt.Errorf("certificates.number_prefix is required")
	}
	if c.Certificates.RetryIntervalSeconds <= 0 {
		return fmt.Errorf("certificates.retry_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

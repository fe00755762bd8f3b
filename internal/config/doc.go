// Package config loads, validates, and normalizes the nodues TOML
// configuration: data and certificate directories, the ordered department
// registry, the approver directory, notification delivery, and logging.
package config

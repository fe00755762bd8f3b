package config

// Default returns the built-in configuration. Paths are expanded during
// normalization; the department sequence mirrors the standard university
// clearance chain.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        "~/.local/share/nodues",
			CertificateDir: "~/.local/share/nodues/certificates",
			LogDir:         "~/.local/share/nodues/logs",
		},
		Departments: []Department{
			{ID: "library", Role: "librarian", Position: 1, Label: "University Library"},
			{ID: "hostel", Role: "warden", Position: 2, Label: "Hostel Administration"},
			{ID: "sports", Role: "sports_officer", Position: 3, Label: "Sports Department"},
			{ID: "labs", Role: "lab_incharge", Position: 4, Label: "Laboratories"},
			{ID: "crc", Role: "crc_officer", Position: 5, Label: "Corporate Relations Cell"},
			{ID: "accounts", Role: "accounts_officer", Position: 6, Label: "Finance & Accounts"},
		},
		Notifications: Notifications{
			RequestTimeout:     10,
			Decisions:          true,
			Terminal:           true,
			Certificates:       true,
			Errors:             true,
			DedupWindowSeconds: 300,
		},
		Certificates: Certificates{
			Issuer:               "Office of the Registrar",
			NumberPrefix:         "ND",
			RetryIntervalSeconds: 300,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

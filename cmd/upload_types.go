package cmd

import (
	"github.com/stuttgart-things/beam/internal/config"
)

// UploadConfig holds configuration for the upload command
type UploadConfig struct {
	// Content sources: file paths, or "-" for stdin
	Files []string

	// Remote filename override (single file or stdin only)
	RemoteName string

	// Encryption
	Encrypt    bool
	Recipients []string

	// Output configuration
	NoRegistry bool

	// Mode control
	Interactive bool

	// Resolved settings (file + env + flags)
	Settings *config.Config
}

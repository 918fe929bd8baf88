package cmd

import (
	"fmt"
	"os"

	"github.com/stuttgart-things/beam/internal/pgp"
)

// runUploadNonInteractive runs the upload command in non-interactive mode
func runUploadNonInteractive(uc *UploadConfig) error {
	if len(uc.Files) == 0 {
		return fmt.Errorf("at least one file argument is required in non-interactive mode")
	}

	// Symmetric passphrases come from the environment; prompting is not an
	// option here and encryption must fail closed without one.
	var passphrase pgp.PassphraseFunc
	if uc.Encrypt && len(uc.Recipients) == 0 {
		passphrase = func() ([]byte, error) {
			pass := os.Getenv("BEAM_PASSPHRASE")
			if pass == "" {
				return nil, fmt.Errorf("BEAM_PASSPHRASE is not set")
			}
			return []byte(pass), nil
		}
	}

	jobs, err := buildJobs(uc, os.Stdin)
	if err != nil {
		return err
	}
	return executeUploads(uc, jobs, passphrase)
}

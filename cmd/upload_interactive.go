package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/stuttgart-things/beam/internal/keyring"
	"github.com/stuttgart-things/beam/internal/pgp"
)

// Styles for terminal output
var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	listStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// runUploadInteractive runs the upload command in interactive mode
func runUploadInteractive(uc *UploadConfig) error {
	// 1. Collect a file path if none was given
	if len(uc.Files) == 0 {
		var path string
		fileForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("File to upload").
					Description("Path of the local file").
					Placeholder("notes.txt").
					Value(&path).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("a file path is required")
						}
						if _, err := os.Stat(s); err != nil {
							return fmt.Errorf("cannot read %s", s)
						}
						return nil
					}),
			),
		)
		if err := fileForm.Run(); err != nil {
			return fmt.Errorf("file prompt: %w", err)
		}
		uc.Files = []string{path}
	}

	// 2. Remote filename (single file only; empty keeps the default)
	if len(uc.Files) == 1 && uc.RemoteName == "" {
		stdinSource := uc.Files[0] == "-"
		placeholder := "stdin"
		if !stdinSource {
			placeholder = filepath.Base(uc.Files[0])
		}

		nameForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Remote filename").
					Description("Name at the remote end; leave empty for the default").
					Placeholder(placeholder).
					Value(&uc.RemoteName).
					Validate(func(s string) error {
						if stdinSource && s == "" {
							return fmt.Errorf("a remote filename is required for stdin content")
						}
						return nil
					}),
			),
		)
		if err := nameForm.Run(); err != nil {
			return fmt.Errorf("remote name prompt: %w", err)
		}
	}

	// 3. Offer encryption if not already requested
	if !uc.Encrypt {
		encryptForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Encrypt before uploading?").
					Description("Content is encrypted with OpenPGP, the service only sees ciphertext").
					Affirmative("Yes, encrypt").
					Negative("No").
					Value(&uc.Encrypt),
			),
		)
		if err := encryptForm.Run(); err != nil {
			return fmt.Errorf("encryption prompt: %w", err)
		}
	}

	// 4. Recipient selection and passphrase collection
	var passphrase pgp.PassphraseFunc
	if uc.Encrypt {
		if len(uc.Recipients) == 0 {
			selected, err := chooseRecipients(uc)
			if err != nil {
				return err
			}
			uc.Recipients = selected
		}

		if len(uc.Recipients) == 0 {
			pass, err := promptPassphrase()
			if err != nil {
				return fmt.Errorf("passphrase prompt: %w", err)
			}
			passphrase = func() ([]byte, error) {
				return []byte(pass), nil
			}
		}
	}

	// 5. Confirm before any network traffic
	var confirm bool
	target := uc.Settings.BaseURL
	confirmForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Upload %d file(s) to %s?", len(uc.Files), target)).
				Affirmative("Yes, upload").
				Negative("Cancel").
				Value(&confirm),
		),
	)
	if err := confirmForm.Run(); err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !confirm {
		fmt.Println("Cancelled.")
		return nil
	}

	jobs, err := buildJobs(uc, os.Stdin)
	if err != nil {
		return err
	}
	return executeUploads(uc, jobs, passphrase)
}

// chooseRecipients resolves the recipient set from the keyring. When the
// keyring cannot be read, switching to symmetric passphrase mode needs an
// explicit confirmation; declining surfaces the keyring error instead of
// silently changing the encryption mode. An empty selection from a readable
// keyring means symmetric mode.
func chooseRecipients(uc *UploadConfig) ([]string, error) {
	refs, err := loadKeyReferences(uc)
	if err != nil {
		ok, confirmErr := confirmPassphraseFallback(err)
		if confirmErr != nil {
			return nil, fmt.Errorf("keyring fallback prompt: %w", confirmErr)
		}
		if !ok {
			return nil, fmt.Errorf("reading keyring: %w", err)
		}
		return nil, nil
	}
	if len(refs) == 0 {
		return nil, nil
	}
	selected, err := selectRecipients(refs)
	if err != nil {
		return nil, fmt.Errorf("recipient selection: %w", err)
	}
	return selected, nil
}

// confirmPassphraseFallback asks whether to continue with a symmetric
// passphrase when the keyring backend is unavailable. Swapped in tests.
var confirmPassphraseFallback = func(reason error) (bool, error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("Keyring unavailable: %v", reason)))

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Continue with passphrase encryption?").
				Description("Recipient keys cannot be used without the keyring").
				Affirmative("Yes, use a passphrase").
				Negative("Abort").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// loadKeyReferences builds the keyring index and returns its sorted labels.
func loadKeyReferences(uc *UploadConfig) ([]string, error) {
	idx := keyring.NewIndex(uc.Settings.KeyringPath, uc.Settings.KeyReferenceSeparator)
	if err := idx.Ensure(); err != nil {
		return nil, err
	}
	refs := idx.References()
	sort.Strings(refs)
	return refs, nil
}

// selectRecipients shows a multi-select over the keyring references.
// An empty selection means symmetric passphrase mode.
func selectRecipients(refs []string) ([]string, error) {
	var options []huh.Option[string]
	for _, ref := range refs {
		options = append(options, huh.NewOption(ref, ref))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select recipients").
				Description("Empty selection encrypts with a symmetric passphrase instead").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	return selected, nil
}

// promptPassphrase collects and confirms a symmetric passphrase.
func promptPassphrase() (string, error) {
	var pass, again string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Passphrase").
				Description("Used to encrypt the content symmetrically").
				EchoMode(huh.EchoModePassword).
				Value(&pass).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a passphrase is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Repeat passphrase").
				EchoMode(huh.EchoModePassword).
				Value(&again).
				Validate(func(s string) error {
					if s != pass {
						return fmt.Errorf("passphrases do not match")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return pass, nil
}

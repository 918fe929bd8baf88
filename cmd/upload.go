package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stuttgart-things/beam/internal/config"
)

var (
	uploadConfigPath string
	uploadName       string
	uploadEncrypt    bool
	uploadRecipients []string

	// Config overrides
	uploadBaseURL   string
	uploadPrefix    string
	uploadSuffix    string
	uploadAgentCmd  string
	uploadAgentArgs []string
	uploadKeyring   string
	uploadTempDir   string

	uploadNoClipboard bool
	uploadNoRegistry  bool

	// Mode flags for upload
	uploadInteractive    bool
	uploadNonInteractive bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files... | -]",
	Short: "Upload files to a transfer.sh-compatible service",
	Long: `Uploads one or more local files (or stdin via "-") through an external
transfer agent (wget or curl), optionally encrypting them with OpenPGP first.
The resulting URL is copied to the clipboard.`,
	Run: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadConfigPath, "config", "c", "", "Config file (default: ~/.config/beam/config.yaml)")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "Remote filename (default: local base name)")
	uploadCmd.Flags().BoolVarP(&uploadEncrypt, "encrypt", "e", false, "Encrypt with OpenPGP before uploading")
	uploadCmd.Flags().StringSliceVarP(&uploadRecipients, "recipient", "r", nil, "Recipient key reference (repeatable; none means passphrase mode)")

	uploadCmd.Flags().StringVar(&uploadBaseURL, "base-url", "", "Upload endpoint (default: $BEAM_BASE_URL or https://transfer.sh)")
	uploadCmd.Flags().StringVar(&uploadPrefix, "prefix", "", "Prefix applied to the remote filename")
	uploadCmd.Flags().StringVar(&uploadSuffix, "suffix", "", "Suffix applied to the remote filename")
	uploadCmd.Flags().StringVar(&uploadAgentCmd, "agent", "", "Transfer agent command (default: auto-detect wget/curl)")
	uploadCmd.Flags().StringSliceVar(&uploadAgentArgs, "agent-arg", nil, "Agent argument template token (repeatable, use {source} and {destination})")
	uploadCmd.Flags().StringVar(&uploadKeyring, "keyring", "", "OpenPGP keyring file (default: ~/.gnupg/pubring.gpg)")
	uploadCmd.Flags().StringVar(&uploadTempDir, "temp-dir", "", "Directory for temp files")

	uploadCmd.Flags().BoolVar(&uploadNoClipboard, "no-clipboard", false, "Do not copy the result URL to the clipboard")
	uploadCmd.Flags().BoolVar(&uploadNoRegistry, "no-registry", false, "Do not record the upload in the registry")

	// Mode flags
	uploadCmd.Flags().BoolVarP(&uploadInteractive, "interactive", "i", false, "Force interactive mode")
	uploadCmd.Flags().BoolVar(&uploadNonInteractive, "non-interactive", false, "Force non-interactive mode")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) {
	fmt.Println(logo)

	cfg, err := config.Load(uploadConfigPath)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}
	applyUploadFlags(cmd, cfg)

	uc := &UploadConfig{
		Files:      args,
		RemoteName: uploadName,
		Encrypt:    uploadEncrypt,
		Recipients: uploadRecipients,
		NoRegistry: uploadNoRegistry,
		Settings:   cfg,
	}

	// Determine mode
	if uploadNonInteractive {
		uc.Interactive = false
	} else if uploadInteractive {
		uc.Interactive = true
	} else {
		uc.Interactive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Stdin content rules out prompting on stdin.
	for _, f := range args {
		if f == "-" && !uploadInteractive {
			uc.Interactive = false
		}
	}

	if uc.Interactive {
		err = runUploadInteractive(uc)
	} else {
		err = runUploadNonInteractive(uc)
	}

	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// applyUploadFlags overlays changed flags onto the loaded config.
func applyUploadFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = uploadBaseURL
	}
	if cmd.Flags().Changed("prefix") {
		cfg.RemotePrefix = uploadPrefix
	}
	if cmd.Flags().Changed("suffix") {
		cfg.RemoteSuffix = uploadSuffix
	}
	if cmd.Flags().Changed("agent") {
		cfg.AgentCommand = uploadAgentCmd
	}
	if cmd.Flags().Changed("agent-arg") {
		cfg.AgentArgs = uploadAgentArgs
	}
	if cmd.Flags().Changed("keyring") {
		cfg.KeyringPath = uploadKeyring
	}
	if cmd.Flags().Changed("temp-dir") {
		cfg.TempDir = uploadTempDir
	}
	if uploadNoClipboard {
		cfg.Clipboard = false
	}
}

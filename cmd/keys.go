package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/beam/internal/config"
	"github.com/stuttgart-things/beam/internal/keyring"
)

var (
	keysConfigPath string
	keysKeyring    string
	keysSeparator  string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List encryption key references from the keyring",
	Long: `Reads the configured OpenPGP keyring and lists the key references
available for recipient selection with upload --recipient.`,
	Run: runKeys,
}

func init() {
	keysCmd.Flags().StringVarP(&keysConfigPath, "config", "c", "", "Config file (default: ~/.config/beam/config.yaml)")
	keysCmd.Flags().StringVar(&keysKeyring, "keyring", "", "OpenPGP keyring file (default: ~/.gnupg/pubring.gpg)")
	keysCmd.Flags().StringVar(&keysSeparator, "separator", "", "Separator for key reference labels")

	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) {
	fmt.Println(logo)

	cfg, err := config.Load(keysConfigPath)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}
	if cmd.Flags().Changed("keyring") {
		cfg.KeyringPath = keysKeyring
	}
	if cmd.Flags().Changed("separator") {
		cfg.KeyReferenceSeparator = keysSeparator
	}

	idx := keyring.NewIndex(cfg.KeyringPath, cfg.KeyReferenceSeparator)
	if err := idx.Refresh(); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	refs := idx.References()
	if len(refs) == 0 {
		fmt.Println(progressStyle.Render("No keys found in " + cfg.KeyringPath))
		return
	}
	sort.Strings(refs)

	fmt.Println(progressStyle.Render(fmt.Sprintf("%d key(s) in %s", len(refs), cfg.KeyringPath)))
	fmt.Println(listStyle.Render(strings.Join(refs, "\n")))
}

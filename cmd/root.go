package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beam",
	Short: "Beam CLI tool",
	Long:  `Beam uploads files to transfer.sh-compatible services, optionally OpenPGP-encrypted, and copies the result URL to the clipboard.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(logo)
		_ = cmd.Usage()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stuttgart-things/beam/internal/config"
	"github.com/stuttgart-things/beam/internal/registry"
)

var (
	listConfigPath   string
	listRegistryPath string
	listName         string
	listAgent        string
	listEncrypted    bool
	listOutput       string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploads recorded in the registry",
	Long:  `Lists the uploads recorded in uploads.yaml, with optional filtering by transfer agent or encryption state.`,
	Run:   runList,
}

func init() {
	listCmd.Flags().StringVarP(&listConfigPath, "config", "c", "", "Config file (default: ~/.config/beam/config.yaml)")
	listCmd.Flags().StringVar(&listRegistryPath, "registry", "", "Registry file (default: ~/.config/beam/uploads.yaml)")
	listCmd.Flags().StringVar(&listName, "name", "", "Show the most recent upload with this remote name")
	listCmd.Flags().StringVar(&listAgent, "agent", "", "Filter by transfer agent command")
	listCmd.Flags().BoolVar(&listEncrypted, "encrypted", false, "Only show encrypted uploads")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(listConfigPath)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		os.Exit(1)
	}
	if cmd.Flags().Changed("registry") {
		cfg.RegistryPath = listRegistryPath
	}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error loading registry: %v", err)))
		os.Exit(1)
	}

	var entries []registry.UploadEntry
	if listName != "" {
		if entry := registry.FindEntry(reg, listName); entry != nil {
			entries = []registry.UploadEntry{*entry}
		}
	} else {
		entries = registry.FilterEntries(reg, listAgent, listEncrypted)
	}

	if len(entries) == 0 {
		fmt.Println("No uploads found.")
		return
	}

	switch listOutput {
	case "json":
		printJSON(entries)
	default:
		printTable(entries)
	}
}

func printTable(entries []registry.UploadEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tAGENT\tENCRYPTED\tUPLOADED")
	fmt.Fprintln(w, "----\t---\t-----\t---------\t--------")

	for _, e := range entries {
		encrypted := "no"
		if e.Encrypted {
			encrypted = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Name, e.URL, filepath.Base(e.Agent), encrypted, e.UploadedAt)
	}

	w.Flush()
}

func printJSON(entries []registry.UploadEntry) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error marshalling JSON: %v", err)))
		os.Exit(1)
	}
	fmt.Println(string(data))
}

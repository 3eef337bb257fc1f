// Command notes-cli talks to a running notes service over its HTTP API.
//
//	export NOTES_URL=http://localhost:3000/api
//	export NOTES_TOKEN=$(notes-cli login --email admin@example.com --password secret123 --quiet)
//	notes-cli notes list --search draft
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

var (
	serverURL    string
	token        string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "notes-cli",
	Short: "Command line client for the notes service",
	Long: `notes-cli manages users, notes and public links of a notes service.

Environment Variables:
  NOTES_URL    API base URL including the prefix (default: http://localhost:3000/api)
  NOTES_TOKEN  Bearer token returned by "notes-cli login"`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", getEnv("NOTES_URL", "http://localhost:3000/api"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("NOTES_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
}

// newCLI builds a client from the global flags, writing to cmd's output.
func newCLI(cmd *cobra.Command) *CLI {
	return &CLI{
		BaseURL: serverURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Out:     cmd.OutOrStdout(),
		Format:  outputFormat,
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

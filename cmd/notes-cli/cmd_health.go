package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the API answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		var resp struct {
			Status    string `json:"status" yaml:"status"`
			Timestamp string `json:"timestamp" yaml:"timestamp"`
			Service   string `json:"service" yaml:"service"`
		}
		if err := c.get(cmd.Context(), "/public/health", nil, &resp); err != nil {
			return err
		}
		if done, err := c.structured(resp); done {
			return err
		}
		fmt.Fprintf(c.Out, "%s %s at %s\n", resp.Service, statusText(resp.Status == "ok", resp.Status, resp.Status), resp.Timestamp)
		return nil
	},
}

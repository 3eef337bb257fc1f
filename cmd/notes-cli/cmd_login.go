package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (default: $NOTES_PASSWORD)")
	loginCmd.Flags().BoolP("quiet", "q", false, "Print only the access token")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an access token",
	Long: `Authenticate with email and password and print the bearer token.

Examples:
  notes-cli login --email admin@example.com --password secret123
  export NOTES_TOKEN=$(notes-cli login --email admin@example.com -q)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if password == "" {
			password = os.Getenv("NOTES_PASSWORD")
		}
		if email == "" || password == "" {
			return errors.New("--email and --password are required")
		}

		c := newCLI(cmd)
		res, err := c.login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if quiet {
			fmt.Fprintln(c.Out, res.AccessToken)
			return nil
		}
		if done, err := c.structured(res); done {
			return err
		}
		fmt.Fprintf(c.Out, "Logged in as %s (%s), token expires in %ds\n", res.User.Email, res.User.Role, res.ExpiresIn)
		fmt.Fprintf(c.Out, "export NOTES_TOKEN=%s\n", res.AccessToken)
		return nil
	},
}

func (c *CLI) login(ctx context.Context, email, password string) (*loginResult, error) {
	var res loginResult
	err := c.post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

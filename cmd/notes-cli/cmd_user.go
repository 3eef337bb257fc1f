package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	userListCmd.Flags().Int("page", 1, "Page number")
	userListCmd.Flags().Int("limit", 10, "Page size")
	userCreateCmd.Flags().String("email", "", "Email of the new user")
	userCreateCmd.Flags().String("password", "", "Initial password")
	userCreateCmd.Flags().String("role", "user", "Role: admin or user")
	userPasswdCmd.Flags().String("password", "", "New password")

	userCmd.AddCommand(userListCmd, userGetCmd, userCreateCmd, userDeleteCmd, userPasswdCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Manage users (admin only, except passwd)",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		c := newCLI(cmd)

		res, err := c.listUsers(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		if done, err := c.structured(res); done {
			return err
		}
		w := newTable(c.Out, "ID\tEMAIL\tROLE\tCREATED")
		for _, u := range res.Users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()
		footer(c.Out, res.pageInfo)
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		var u user
		if err := c.get(cmd.Context(), "/users/"+url.PathEscape(args[0]), nil, &u); err != nil {
			return err
		}
		return c.printUser(&u)
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		if email == "" || password == "" {
			return errors.New("--email and --password are required")
		}

		c := newCLI(cmd)
		var u user
		body := map[string]string{"email": email, "password": password, "role": role}
		if err := c.post(cmd.Context(), "/users", body, &u); err != nil {
			return err
		}
		return c.printUser(&u)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user with their notes and links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		if err := c.delete(cmd.Context(), "/users/"+url.PathEscape(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, okFmt("Deleted"), args[0])
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <id>",
	Short: "Change your own password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			return errors.New("--password is required")
		}
		c := newCLI(cmd)
		path := "/users/" + url.PathEscape(args[0]) + "/password"
		if err := c.patch(cmd.Context(), path, map[string]string{"password": password}, nil); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, okFmt("Password changed"))
		return nil
	},
}

func (c *CLI) listUsers(ctx context.Context, page, limit int) (*userPage, error) {
	var res userPage
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/users", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *CLI) printUser(u *user) error {
	if done, err := c.structured(u); done {
		return err
	}
	fmt.Fprintf(c.Out, "ID:      %s\n", u.ID)
	fmt.Fprintf(c.Out, "Email:   %s\n", u.Email)
	fmt.Fprintf(c.Out, "Role:    %s\n", u.Role)
	fmt.Fprintf(c.Out, "Created: %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

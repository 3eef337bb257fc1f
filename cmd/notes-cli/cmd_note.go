package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	noteListCmd.Flags().String("search", "", "Match title or description")
	noteListCmd.Flags().String("status", "", "Filter by status: active, disabled")
	noteListCmd.Flags().Int("page", 1, "Page number")
	noteListCmd.Flags().Int("limit", 10, "Page size")

	noteCreateCmd.Flags().String("title", "", "Note title")
	noteCreateCmd.Flags().String("description", "", "Note body")

	noteUpdateCmd.Flags().String("title", "", "New title")
	noteUpdateCmd.Flags().String("description", "", "New body")
	noteUpdateCmd.Flags().String("status", "", "New status: active, disabled")

	noteShareCmd.Flags().String("description", "", "Link description")
	noteShareCmd.Flags().Duration("expires-in", 0, "Expire the link after this duration, e.g. 72h")

	noteLinksCmd.Flags().Int("page", 1, "Page number")
	noteLinksCmd.Flags().Int("limit", 10, "Page size")

	noteCmd.AddCommand(noteListCmd, noteGetCmd, noteCreateCmd, noteUpdateCmd, noteDeleteCmd,
		noteShareCmd, noteLinksCmd, noteUnshareCmd, noteStatsCmd)
	rootCmd.AddCommand(noteCmd)
}

var noteCmd = &cobra.Command{
	Use:     "notes",
	Aliases: []string{"note"},
	Short:   "Manage your notes and their public links",
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		c := newCLI(cmd)

		res, err := c.listNotes(cmd.Context(), search, status, page, limit)
		if err != nil {
			return err
		}
		if done, err := c.structured(res); done {
			return err
		}
		w := newTable(c.Out, "ID\tTITLE\tSTATUS\tWORDS\tVIEWS\tUPDATED")
		for _, n := range res.Notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", n.ID, n.Title,
				statusText(n.Status == "active", n.Status, n.Status),
				n.WordCount, n.TotalViews, n.UpdatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
		footer(c.Out, res.pageInfo)
		return nil
	},
}

var noteGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		var n note
		if err := c.get(cmd.Context(), "/notes/"+url.PathEscape(args[0]), nil, &n); err != nil {
			return err
		}
		return c.printNote(&n)
	},
}

var noteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		if title == "" || description == "" {
			return errors.New("--title and --description are required")
		}
		c := newCLI(cmd)
		var n note
		if err := c.post(cmd.Context(), "/notes", map[string]string{"title": title, "description": description}, &n); err != nil {
			return err
		}
		return c.printNote(&n)
	},
}

var noteUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the title, body or status of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{}
		for _, name := range []string{"title", "description", "status"} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetString(name)
				body[name] = v
			}
		}
		if len(body) == 0 {
			return errors.New("nothing to update")
		}
		c := newCLI(cmd)
		var n note
		if err := c.patch(cmd.Context(), "/notes/"+url.PathEscape(args[0]), body, &n); err != nil {
			return err
		}
		return c.printNote(&n)
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note and its public links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		if err := c.delete(cmd.Context(), "/notes/"+url.PathEscape(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, okFmt("Deleted"), args[0])
		return nil
	},
}

var noteShareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Create a public link for a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		expiresIn, _ := cmd.Flags().GetDuration("expires-in")
		c := newCLI(cmd)

		l, err := c.share(cmd.Context(), args[0], description, expiresIn, time.Now())
		if err != nil {
			return err
		}
		if done, err := c.structured(l); done {
			return err
		}
		fmt.Fprintf(c.Out, "Shared %q as %s\n", l.Note.Title, l.PublicURL)
		if l.ExpiresAt != nil {
			fmt.Fprintln(c.Out, dimFmt("expires "+l.ExpiresAt.Format(time.RFC3339)))
		}
		return nil
	},
}

var noteLinksCmd = &cobra.Command{
	Use:   "links",
	Short: "List the public links you created",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		c := newCLI(cmd)

		var res linkPage
		q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
		if err := c.get(cmd.Context(), "/notes/shared", q, &res); err != nil {
			return err
		}
		if done, err := c.structured(res); done {
			return err
		}
		w := newTable(c.Out, "PUBLIC ID\tNOTE\tVIEWS\tSTATE\tURL")
		for _, l := range res.Links {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.PublicID, l.Note.Title, l.ViewCount,
				statusText(l.IsActive, "active", "inactive"), l.PublicURL)
		}
		w.Flush()
		footer(c.Out, res.pageInfo)
		return nil
	},
}

var noteUnshareCmd = &cobra.Command{
	Use:   "unshare <public-id>",
	Short: "Delete a public link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		if err := c.delete(cmd.Context(), "/notes/shared/"+url.PathEscape(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, okFmt("Deleted"), args[0])
		return nil
	},
}

var noteStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show note and link counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newCLI(cmd)
		var stats struct {
			Notes map[string]int64 `json:"notes" yaml:"notes"`
			Links map[string]int64 `json:"links" yaml:"links"`
		}
		if err := c.get(cmd.Context(), "/notes/stats", nil, &stats.Notes); err != nil {
			return err
		}
		if err := c.get(cmd.Context(), "/notes/shared/stats", nil, &stats.Links); err != nil {
			return err
		}
		if done, err := c.structured(stats); done {
			return err
		}
		w := newTable(c.Out, "COUNTER\tVALUE")
		for _, k := range []string{"totalNotes", "activeNotes", "disabledNotes", "sharedNotes", "totalViews"} {
			fmt.Fprintf(w, "notes.%s\t%d\n", k, stats.Notes[k])
		}
		for _, k := range []string{"totalLinks", "activeLinks", "expiredLinks", "totalViews"} {
			fmt.Fprintf(w, "links.%s\t%d\n", k, stats.Links[k])
		}
		return w.Flush()
	},
}

func (c *CLI) listNotes(ctx context.Context, search, status string, page, limit int) (*notePage, error) {
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	if search != "" {
		q.Set("search", search)
	}
	if status != "" {
		q.Set("status", status)
	}
	var res notePage
	if err := c.get(ctx, "/notes", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// share creates a public link; a zero expiresIn means the link never expires.
func (c *CLI) share(ctx context.Context, noteID, description string, expiresIn time.Duration, now time.Time) (*link, error) {
	body := map[string]any{}
	if description != "" {
		body["description"] = description
	}
	if expiresIn > 0 {
		body["expiresAt"] = now.Add(expiresIn).UTC().Format(time.RFC3339)
	}
	var l link
	if err := c.post(ctx, "/notes/"+url.PathEscape(noteID)+"/share", body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *CLI) printNote(n *note) error {
	if done, err := c.structured(n); done {
		return err
	}
	fmt.Fprintf(c.Out, "ID:      %s\n", n.ID)
	fmt.Fprintf(c.Out, "Title:   %s\n", n.Title)
	fmt.Fprintf(c.Out, "Status:  %s\n", statusText(n.Status == "active", n.Status, n.Status))
	fmt.Fprintf(c.Out, "Words:   %d\n", n.WordCount)
	fmt.Fprintf(c.Out, "Shared:  %t (%d views)\n", n.IsPubliclyShared, n.TotalViews)
	fmt.Fprintf(c.Out, "Updated: %s\n\n", n.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(c.Out, n.Description)
	return nil
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	headerFmt = color.New(color.Bold).SprintFunc()
	okFmt     = color.New(color.FgGreen).SprintFunc()
	warnFmt   = color.New(color.FgYellow).SprintFunc()
	dimFmt    = color.New(color.Faint).SprintFunc()
)

func newTable(out io.Writer, header string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerFmt(header))
	return w
}

func statusText(active bool, yes, no string) string {
	if active {
		return okFmt(yes)
	}
	return warnFmt(no)
}

func footer(out io.Writer, p pageInfo) {
	fmt.Fprintln(out, dimFmt(fmt.Sprintf("page %d of %d, %d total", p.Page, p.TotalPages, p.Total)))
}

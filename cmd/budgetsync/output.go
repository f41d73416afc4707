package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"budgetsync/internal/services"
	"budgetsync/internal/storage"
)

func printResult(w io.Writer, res services.RunResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Run:\t%s\n", res.RunID)
	if res.MonthLabel != "" {
		fmt.Fprintf(tw, "Month:\t%s\n", res.MonthLabel)
	}
	if res.MonthColumn != "" {
		fmt.Fprintf(tw, "Column:\t%s\n", res.MonthColumn)
	}
	switch {
	case res.Failed():
		fmt.Fprintf(tw, "Status:\tfailed at %s: %v\n", res.Step, res.Err)
	case res.DryRun:
		fmt.Fprintf(tw, "Status:\tdry run, %d writes planned\n", len(res.Plan))
	default:
		fmt.Fprintf(tw, "Status:\t%d writes applied\n", len(res.Plan))
	}

	if len(res.Plan) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "ADDRESS\tVALUE")
		for _, wr := range res.Plan {
			fmt.Fprintf(tw, "%s\t%v\n", wr.Address, wr.Value)
		}
	}

	if len(res.Unmatched) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "UNMATCHED\tCODE\tSPENT")
		for _, e := range res.Unmatched {
			code := e.Code
			if code == "" {
				code = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Category, code, e.Spent)
		}
	}

	return tw.Flush()
}

func printRuns(w io.Writer, runs []storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMONTH\tCOLUMN\tENTRIES\tUNMATCHED\tSTATUS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			monthText(r),
			r.MonthColumn,
			r.Entries,
			r.Unmatched,
			runStatus(r))
	}
	return tw.Flush()
}

func printRun(w io.Writer, r storage.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Started:\t%s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Duration:\t%s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(tw, "Month:\t%s\n", monthText(r))
	fmt.Fprintf(tw, "Column:\t%s\n", r.MonthColumn)
	fmt.Fprintf(tw, "Entries:\t%d (%d unmatched)\n", r.Entries, r.Unmatched)
	fmt.Fprintf(tw, "Status:\t%s\n", runStatus(r))
	if len(r.Writes) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "ADDRESS\tVALUE")
		for _, wr := range r.Writes {
			fmt.Fprintf(tw, "%s\t%s\n", wr.Address, wr.Value)
		}
	}
	return tw.Flush()
}

func monthText(r storage.Run) string {
	if r.MonthLabel != "" {
		return r.MonthLabel
	}
	return fmt.Sprintf("%02d", r.Month)
}

func runStatus(r storage.Run) string {
	switch {
	case r.Failed():
		return fmt.Sprintf("failed at %s: %s", r.Step, r.Error)
	case r.DryRun:
		return "dry run"
	default:
		return "ok"
	}
}

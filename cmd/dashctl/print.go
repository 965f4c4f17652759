package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"anomalyse_dashboard/internal/flags"
	"anomalyse_dashboard/internal/view"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRows(w io.Writer, snap view.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tUSER\tLOCATION\tCATEGORY\tAMOUNT\tRISK\tSTATUS\tFLAGS\tACTION")
	for _, r := range snap.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d%%\t%s\t%s\t%s\n",
			r.ID, r.Timestamp, r.UserID, r.Location, r.Category, r.Amount,
			r.RiskPercent, r.Status, badgeList(r.Badges), r.Action)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(snap.Rows) == 0 {
		fmt.Fprintln(w, "No transactions found")
	}
	fmt.Fprintf(w, "\n%d of %d transactions\n", snap.Shown, snap.Total)
	return nil
}

// badgeList renders badges as "type" or "!type" for critical ones.
func badgeList(badges []flags.Badge) string {
	parts := make([]string, len(badges))
	for i, b := range badges {
		if b.Critical() {
			parts[i] = "!" + b.Type
		} else {
			parts[i] = b.Type
		}
	}
	return strings.Join(parts, ",")
}

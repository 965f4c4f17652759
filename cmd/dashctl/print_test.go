package main

import (
	"bytes"
	"strings"
	"testing"

	"anomalyse_dashboard/internal/dashboard"
	"anomalyse_dashboard/internal/flags"
	"anomalyse_dashboard/internal/view"
)

func TestBadgeList(t *testing.T) {
	a, _ := flags.Classify("High Velocity", "")
	b, _ := flags.Classify("Category Shift", "new merchant")
	if got := badgeList([]flags.Badge{a, b}); got != "!High Velocity,Category Shift" {
		t.Fatalf("unexpected badge list %q", got)
	}
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	snap := view.Snapshot{
		Rows:  []dashboard.Row{{ID: "T1", UserID: "U1", Amount: "$10.00", RiskPercent: 80, Status: dashboard.StatusSuspicious}},
		Total: 3,
		Shown: 1,
	}
	if err := printRows(&buf, snap); err != nil {
		t.Fatalf("printRows: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "T1") || !strings.Contains(out, "80%") || !strings.Contains(out, "1 of 3 transactions") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintRows_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printRows(&buf, view.Snapshot{}); err != nil {
		t.Fatalf("printRows: %v", err)
	}
	if !strings.Contains(buf.String(), "No transactions found") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}
}

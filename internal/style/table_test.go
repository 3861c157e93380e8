package style

import (
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	tbl := NewTable(
		Column{Name: "ID", Width: 10},
		Column{Name: "STATUS", Width: 8},
	)
	tbl.AddRow("wt-abc123", "busy")
	tbl.AddRow("wt-def456", "ready")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Render() = %d lines, want header, separator, and 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(stripAnsi(lines[0]), "ID") || !strings.Contains(stripAnsi(lines[0]), "STATUS") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "─") {
		t.Errorf("separator = %q", lines[1])
	}
	if !strings.Contains(stripAnsi(lines[2]), "wt-abc123") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestTable_ShortRowsPadded(t *testing.T) {
	tbl := NewTable(
		Column{Name: "A", Width: 4},
		Column{Name: "B", Width: 4},
	)
	tbl.AddRow("x")

	out := tbl.Render()
	if !strings.Contains(stripAnsi(out), "x") {
		t.Errorf("Render() = %q", out)
	}
}

func TestTable_Truncation(t *testing.T) {
	tbl := NewTable(Column{Name: "NAME", Width: 8})
	tbl.AddRow("a-very-long-worktree-name")

	out := stripAnsi(tbl.Render())
	if !strings.Contains(out, "a-ver...") {
		t.Errorf("long cell not truncated: %q", out)
	}
	if strings.Contains(out, "a-very-long") {
		t.Errorf("long cell leaked past its column: %q", out)
	}
}

func TestTable_Empty(t *testing.T) {
	if out := NewTable().Render(); out != "" {
		t.Errorf("Render() of empty table = %q, want empty", out)
	}
}

func TestStripAnsi(t *testing.T) {
	styled := "\x1b[1mbold\x1b[0m plain"
	if got := stripAnsi(styled); got != "bold plain" {
		t.Errorf("stripAnsi() = %q", got)
	}
	if got := stripAnsi("no codes"); got != "no codes" {
		t.Errorf("stripAnsi() = %q", got)
	}
}

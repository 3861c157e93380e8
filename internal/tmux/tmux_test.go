package tmux

import "testing"

func TestParsePaneLine(t *testing.T) {
	info, ok := parsePaneLine("%3|2|wt-abc123|claude|4242|0")
	if !ok {
		t.Fatal("parsePaneLine() rejected a valid line")
	}
	if info.ID != "%3" || info.WindowIndex != 2 || info.WindowName != "wt-abc123" {
		t.Errorf("parsed %+v", info)
	}
	if info.Command != "claude" || info.PID != 4242 || info.Dead {
		t.Errorf("parsed %+v", info)
	}

	info, ok = parsePaneLine("%7|0|ppg|bash|100|1")
	if !ok || !info.Dead {
		t.Error("dead pane flag not parsed")
	}

	if _, ok := parsePaneLine("%3|2|short"); ok {
		t.Error("parsePaneLine() accepted a truncated line")
	}
	if _, ok := parsePaneLine(""); ok {
		t.Error("parsePaneLine() accepted an empty line")
	}
}

func TestTargetWindowIndex(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"ppg-demo:0", 0},
		{"ppg-demo:12", 12},
		{"ppg-demo:3.1", 3},
		{"%5", -1},
		{"ppg-demo", -1},
		{"ppg-demo:abc", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := TargetWindowIndex(tt.target); got != tt.want {
			t.Errorf("TargetWindowIndex(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestIsPaneID(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"%0", true},
		{"%12", true},
		{"%", false},
		{"%abc", false},
		{"ppg-demo:1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPaneID(tt.target); got != tt.want {
			t.Errorf("IsPaneID(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestWindowTarget(t *testing.T) {
	if got := WindowTarget("ppg-demo", 3); got != "ppg-demo:3" {
		t.Errorf("WindowTarget() = %q, want ppg-demo:3", got)
	}
}

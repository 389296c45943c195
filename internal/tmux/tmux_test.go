package tmux

import "testing"

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"\n", 0},
		{"one\n", 1},
		{"one\ntwo\n", 2},
		{"one\n\ntwo\n  \n", 2},
	}
	for _, tt := range tests {
		if got := splitLines(tt.in); len(got) != tt.want {
			t.Errorf("splitLines(%q) = %v, want %d lines", tt.in, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("error: boom\ndetail\n"); got != "error: boom" {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine("  single  "); got != "single" {
		t.Errorf("firstLine() = %q", got)
	}
}

func TestUnavailableTmux(t *testing.T) {
	tm := &Tmux{}
	if tm.IsAvailable() {
		t.Fatal("zero-path Tmux should report unavailable")
	}
	if _, err := tm.HasSession("x"); err == nil {
		t.Error("HasSession should fail without tmux")
	}
	if err := tm.KillSession("x"); err == nil {
		t.Error("KillSession should fail without tmux")
	}
	if _, err := tm.ListSessions(); err == nil {
		t.Error("ListSessions should fail without tmux")
	}
}

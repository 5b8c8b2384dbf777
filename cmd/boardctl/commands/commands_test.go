package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOccurrencesCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantErr   bool
		wantLines []string
		wantTotal string
	}{
		{
			name:      "weekly on listed days",
			args:      []string{"--pattern", "weekly", "--days", "1,3,5", "--base", "2024-01-01", "--to", "2024-01-14"},
			wantLines: []string{"2024-01-01T00:00:00Z  Monday", "2024-01-12T00:00:00Z  Friday"},
			wantTotal: "6 occurrence(s)",
		},
		{
			name:      "daily with count",
			args:      []string{"--count", "3", "--base", "2024-01-01T09:00:00Z", "--to", "2024-02-01"},
			wantLines: []string{"2024-01-03T09:00:00Z  Wednesday"},
			wantTotal: "3 occurrence(s)",
		},
		{
			name:      "window after base",
			args:      []string{"--pattern", "daily", "--interval", "2", "--base", "2024-01-01", "--from", "2024-01-04", "--to", "2024-01-08"},
			wantLines: []string{"2024-01-05T00:00:00Z", "2024-01-07T00:00:00Z"},
			wantTotal: "2 occurrence(s)",
		},
		{name: "unknown pattern", args: []string{"--pattern", "yearly", "--base", "2024-01-01", "--to", "2024-01-02"}, wantErr: true},
		{name: "zero count", args: []string{"--count", "0", "--base", "2024-01-01", "--to", "2024-01-02"}, wantErr: true},
		{name: "bad date", args: []string{"--base", "01/01/2024", "--to", "2024-01-02"}, wantErr: true},
		{name: "reversed window", args: []string{"--base", "2024-02-01", "--to", "2024-01-01"}, wantErr: true},
		{name: "missing window end", args: []string{"--base", "2024-01-01"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, NewOccurrencesCmd(), tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			if tt.wantErr {
				return
			}
			for _, line := range tt.wantLines {
				if !strings.Contains(out, line) {
					t.Errorf("Expected output to contain %q, got:\n%s", line, out)
				}
			}
			if !strings.Contains(out, tt.wantTotal) {
				t.Errorf("Expected %q, got:\n%s", tt.wantTotal, out)
			}
		})
	}
}

func TestRulesCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, NewRulesCmd())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "default_duration:") {
		t.Errorf("Expected YAML rule table, got:\n%s", out)
	}

	out, err = execute(t, NewRulesCmd(), "--preview", "Call client about urgent report")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"category: urgent", "priority: URGENT", "duration: 10 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected preview to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRulesCmd_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("default_duration: -5\n"), 0o600); err != nil {
		t.Fatalf("Failed to write rule file: %v", err)
	}
	if _, err := execute(t, NewRulesCmd(), "--file", bad); err == nil {
		t.Error("Expected an invalid rule table to be rejected")
	}
	if _, err := execute(t, NewRulesCmd(), "--file", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected a missing rule file to be rejected")
	}
}

func TestSimilarityCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{"identical after normalization", []string{"Buy milk", "  buy MILK "}, false, "duplicate: true"},
		{"unrelated", []string{"Buy milk", "File taxes"}, false, "duplicate: false"},
		{"threshold out of range", []string{"--threshold", "2", "a", "b"}, true, ""},
		{"one title", []string{"Buy milk"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, NewSimilarityCmd(), tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q, got:\n%s", tt.want, out)
			}
		})
	}
}

func TestBoardCmd_InvalidID(t *testing.T) {
	t.Parallel()

	if _, err := execute(t, NewBoardCmd(), "not-a-uuid"); err == nil || !strings.Contains(err.Error(), "invalid board id") {
		t.Errorf("Expected invalid board id error, got %v", err)
	}
}

func TestTaskCmd_InvalidID(t *testing.T) {
	t.Parallel()

	for _, sub := range []string{"show", "delete"} {
		if _, err := execute(t, NewTaskCmd(), sub, "42"); err == nil || !strings.Contains(err.Error(), "invalid task id") {
			t.Errorf("%s: expected invalid task id error, got %v", sub, err)
		}
	}
}

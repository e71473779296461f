package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRejectsBadInvocations(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	if err := os.WriteFile(input, []byte("not read by the model"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	missing := filepath.Join(dir, "missing.png")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no input", args: []string{"-prompt", "add a hat", "-key", "k"}, wantErr: "-in is required"},
		{name: "blank input", args: []string{"-in", "  ", "-key", "k"}, wantErr: "-in is required"},
		{name: "missing key", args: []string{"-in", input, "-prompt", "add a hat"}, wantErr: "API key is required"},
		{name: "unreadable input", args: []string{"-in", missing, "-key", "k"}, wantErr: "read " + missing},
		{name: "unreadable reference", args: []string{"-in", input, "-ref", missing, "-key", "k"}, wantErr: "read " + missing},
		{name: "non-positive timeout", args: []string{"-in", input, "-key", "k", "-timeout", "0s"}, wantErr: "-timeout must be positive"},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: "flag provided but not defined"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GOOGLE_API_KEY", "")
			t.Setenv("GEMINI_API_KEY", "")

			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tc.args, &stdout, &stderr)
			if err == nil {
				t.Fatalf("run(%q) error = nil, want %q", tc.args, tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("run(%q) error = %q, want it to contain %q", tc.args, err, tc.wantErr)
			}
			if stdout.Len() != 0 {
				t.Fatalf("run(%q) wrote to stdout: %q", tc.args, stdout.String())
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-h"}, &stdout, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("run(-h) error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(stderr.String(), "-prompt") {
		t.Fatalf("usage output = %q", stderr.String())
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-in", "cat.png"}, &stderr)
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}
	if opts.out != "edited.png" {
		t.Fatalf("out = %q, want edited.png", opts.out)
	}
	if opts.timeout <= 0 {
		t.Fatalf("timeout = %s, want positive", opts.timeout)
	}
}

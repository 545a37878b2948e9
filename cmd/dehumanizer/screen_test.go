package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SamStudio8/dehumanizer/pkg/screen"
)

func dna(n int, state uint32) string {
	out := make([]byte, n)
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = "ACGT"[state>>30]
	}
	return string(out)
}

func TestScreenFastx(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	ref := dna(2000, 17)
	refPath := write("human.fa", ">chr1\n"+ref+"\n")
	manifest := write("manifest.txt", "# name path preset\nhuman "+refPath+" sr\nphage "+refPath+" map-ont\n")

	contaminant := ref[300:450]
	foreign := dna(150, 4242)
	qual := strings.Repeat("I", 150)
	dirty := write("dirty.fq", "@host\n"+contaminant+"\n+\n"+qual+"\n@keep me\n"+foreign+"\n+\n"+qual+"\n")

	clean := filepath.Join(dir, "clean.fq")
	logPath := filepath.Join(dir, "audit.tsv")
	rootCmd.SetArgs([]string{
		"screen", manifest, dirty,
		"--fastx", "--preset", "sr",
		"-o", clean, "--log", logPath,
		"-t", "2", "--blockrep", "1", "-q",
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("screen: %v", err)
	}

	out, err := os.ReadFile(clean)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := "@keep me\n" + foreign + "\n+\n" + qual + "\n"; string(out) != want {
		t.Fatalf("unexpected clean output:\n%s", out)
	}

	audit, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(audit)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", audit)
	}
	if !strings.HasSuffix(lines[0], "\t-\thuman") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "clean.fq\t2\t1\t1\t1\t0\t0\t0\t-\t1" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestScreenChecksManifestBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	dirty := filepath.Join(dir, "dirty.fq")
	if err := os.WriteFile(dirty, []byte("@r\nACGT\n+\nIIII\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	clean := filepath.Join(dir, "clean.fq")
	logPath := filepath.Join(dir, "audit.tsv")

	missing := filepath.Join(dir, "missing.txt")
	rootCmd.SetArgs([]string{"screen", missing, dirty, "--fastx", "--preset", "sr", "-o", clean, "--log", logPath, "-q"})
	err := rootCmd.ExecuteContext(context.Background())
	var cerr *screen.ConfigError
	if !errors.As(err, &cerr) || exitCode(err) != exConfig {
		t.Fatalf("missing manifest: expected a ConfigError, got %v", err)
	}

	manifest := filepath.Join(dir, "manifest.txt")
	if err := os.WriteFile(manifest, []byte("phage "+filepath.Join(dir, "phage.fa")+" map-ont\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rootCmd.SetArgs([]string{"screen", manifest, dirty, "--fastx", "--preset", "sr", "-o", clean, "--log", logPath, "-q"})
	err = rootCmd.ExecuteContext(context.Background())
	if !errors.Is(err, screen.ErrNoReferences) || exitCode(err) != exDataErr {
		t.Fatalf("empty preset: expected ErrNoReferences, got %v", err)
	}

	for _, path := range []string{clean, logPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s written by a run that failed its checks", path)
		}
	}
}

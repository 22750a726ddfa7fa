package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLinesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.log")
	content := "{\"n\":1}\n\n{\"n\":2}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Log("ERROR : not able to write raw log :", err)
		t.FailNow()
	}

	src, err := NewLines(path)
	if err != nil {
		t.Log("ERROR : not able to open raw log :", err)
		t.FailNow()
	}
	defer src.Close()

	ctx := context.Background()
	first, err := src.Next(ctx)
	if err != nil || string(first) != `{"n":1}` {
		t.Fatalf("first line = %q, %v", first, err)
	}
	// Blank lines are skipped.
	second, err := src.Next(ctx)
	if err != nil || string(second) != `{"n":2}` {
		t.Fatalf("second line = %q, %v", second, err)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("exhausted log should yield io.EOF, got %v", err)
	}
}

func TestLinesSourceMissingIsFatal(t *testing.T) {
	if _, err := NewLines(filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Fatal("opening a missing raw log must fail")
	}
}

func TestFlatFileMissingIsFatal(t *testing.T) {
	if _, err := NewFlatFile(filepath.Join(t.TempDir(), "nope.flat")); err == nil {
		t.Fatal("opening a missing flat log must fail")
	}
}

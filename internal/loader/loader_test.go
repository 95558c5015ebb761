package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLoader_Load(t *testing.T) {
	l := NewFileLoader(nil)
	b, err := l.Load(context.Background(), strings.NewReader("(()())"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", b.Len())
	}
	want := []int{1, 1, 0, 1, 0, 0}
	for i, w := range want {
		if got := b.Get(i); got != w {
			t.Errorf("Get(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestFileLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.bp")
	if err := os.WriteFile(path, []byte("(())()"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := NewFileLoader(nil)
	b, err := l.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", b.Len())
	}
}

func TestFileLoader_LoadFile_MissingFile(t *testing.T) {
	l := NewFileLoader(nil)
	_, err := l.LoadFile(context.Background(), "/nonexistent/path/input.bp")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFileLoader_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewFileLoader(nil)
	big := strings.Repeat("(", 8192)
	_, err := l.Load(ctx, strings.NewReader(big))
	if err == nil {
		t.Fatal("expected an error from a pre-cancelled context")
	}
}

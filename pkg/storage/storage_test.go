package storage

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizePathRejectsTraversal(t *testing.T) {
	attacks := []string{
		"../etc/passwd",
		"../../etc/passwd",
		`..\..\windows\system32`,
		"passes/../../secret",
		"passes/..",
		"passes/x\x00.png",
		"/",
		"",
	}
	for _, path := range attacks {
		if _, err := SanitizePath(path); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("SanitizePath(%q) = %v, want ErrInvalidPath", path, err)
		}
	}
}

func TestSanitizePathValid(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"passes/abc.png", "passes/abc.png"},
		{"/passes/abc.png", "passes/abc.png"},
		{"passes/", "passes"},
		{"passes/..hidden.png", "passes/..hidden.png"},
	}
	for _, tc := range tests {
		got, err := SanitizePath(tc.path)
		if err != nil || got != tc.want {
			t.Errorf("SanitizePath(%q) = %q, %v; want %q", tc.path, got, err, tc.want)
		}
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	if err := store.Put(ctx, "passes/k1.png", []byte("png")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := store.Exists(ctx, "passes/k1.png"); !ok {
		t.Fatal("file should exist")
	}
	got, err := store.Get(ctx, "passes/k1.png")
	if err != nil || string(got) != "png" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(root, "passes", "k1.png")); err != nil {
		t.Errorf("file not under root: %v", err)
	}

	if err := store.Delete(ctx, "passes/k1.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "passes/k1.png"); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
	if _, err := store.Get(ctx, "passes/k1.png"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Get after delete = %v, want ErrFileNotFound", err)
	}
}

func TestLocalStorageSandbox(t *testing.T) {
	ctx := context.Background()
	store, _ := NewLocalStorage(t.TempDir(), log.New(io.Discard, "", 0))

	if err := store.Put(ctx, "../escape.png", []byte("x")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Put outside root = %v, want ErrInvalidPath", err)
	}
	if _, err := store.Get(ctx, "../../etc/passwd"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Get outside root = %v, want ErrInvalidPath", err)
	}
}

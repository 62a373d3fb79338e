package storage_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

func TestFSStore_RoundTrip(t *testing.T) {
	s, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("snapshots//a.yaml", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "snapshots/a.yaml" {
		t.Fatalf("key: %q", key)
	}
	if _, err := s.Put("snapshots/b.yaml", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put("other/c.yaml", strings.NewReader("y")); err != nil {
		t.Fatal(err)
	}

	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "hello" {
		t.Fatalf("body: %q", b)
	}

	keys, err := s.List("snapshots/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "snapshots/a.yaml" || keys[1] != "snapshots/b.yaml" {
		t.Fatalf("list: %v", keys)
	}
}

func TestFSStore_Errors(t *testing.T) {
	s, _ := storage.NewFSStore(t.TempDir())
	if _, err := s.Get("missing.yaml"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
	for _, k := range []string{"", "../etc/passwd", "a/../../b", "/"} {
		if _, err := s.Put(k, strings.NewReader("x")); !errors.Is(err, storage.ErrBadKey) {
			t.Fatalf("Put(%q): %v", k, err)
		}
	}
}

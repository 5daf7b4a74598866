package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStorage(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	if _, found, err := s.Get(ctx, "us-2024.json"); err != nil || found {
		t.Fatalf("Get on empty store = found %v, err %v", found, err)
	}

	if err := s.Put(ctx, "us-2024.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "nested/de-2024.json", []byte(`{}`)); err != nil {
		t.Fatalf("Put nested: %v", err)
	}

	got, found, err := s.Get(ctx, "us-2024.json")
	if err != nil || !found || string(got) != `{"a":1}` {
		t.Fatalf("Get = %q, %v, %v", got, found, err)
	}

	keys, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"nested/de-2024.json", "us-2024.json"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("List = %v, want %v", keys, want)
	}

	if err := s.Delete(ctx, "us-2024.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "us-2024.json"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	if _, found, _ := s.Get(ctx, "us-2024.json"); found {
		t.Error("key still present after Delete")
	}
}

func TestFileStorageListSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileStorage(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "fr-2025.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".tmp-123"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	keys, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"fr-2025.json"}) {
		t.Errorf("List = %v", keys)
	}
}

func TestMemoryStorageCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	buf := []byte("abc")
	if err := s.Put(ctx, "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'

	got, found, _ := s.Get(ctx, "k")
	if !found || string(got) != "abc" {
		t.Errorf("Get = %q, %v; stored value must not alias the caller's slice", got, found)
	}

	keys, _ := s.List(ctx, "z")
	if len(keys) != 0 {
		t.Errorf("List with unmatched prefix = %v", keys)
	}
}

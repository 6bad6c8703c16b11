package storage

import (
	"testing"
)

func TestStores_RoundTrip(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if _, ok, _ := store.Get("progress:p1"); ok {
				t.Error("Get() on empty store reported existing key")
			}

			if err := store.Set("progress:p1", []byte(`{"points":100}`)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, ok, err := store.Get("progress:p1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !ok {
				t.Fatal("Get() did not find written key")
			}
			if string(got) != `{"points":100}` {
				t.Errorf("Get() = %s, want {\"points\":100}", got)
			}

			if err := store.Delete("progress:p1"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, ok, _ := store.Get("progress:p1"); ok {
				t.Error("Get() found deleted key")
			}

			// Deleting an absent key is a no-op.
			if err := store.Delete("progress:p1"); err != nil {
				t.Errorf("Delete() on absent key error = %v", err)
			}
		})
	}
}

func TestFileStore_OverwriteKeepsOtherKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	store.Set(ProgressKey("a"), []byte("one"))
	store.Set(ProgressKey("b"), []byte("two"))
	store.Set(ProgressKey("a"), []byte("three"))

	got, _, _ := store.Get(ProgressKey("a"))
	if string(got) != "three" {
		t.Errorf("Get(a) = %s, want three", got)
	}
	got, _, _ = store.Get(ProgressKey("b"))
	if string(got) != "two" {
		t.Errorf("Get(b) = %s, want two", got)
	}
}

func TestProgressKey(t *testing.T) {
	if got := ProgressKey("abc"); got != "progress:abc" {
		t.Errorf("ProgressKey() = %q, want progress:abc", got)
	}
}

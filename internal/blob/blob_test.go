package blob

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			info, err := store.Put(ctx, "archive/users.json", strings.NewReader(`{"id":"u1"}`), PutOptions{
				ContentType: "application/json",
				Metadata:    map[string]string{"entity": "user"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "archive/users.json" || info.Size != 11 {
				t.Fatalf("unexpected info %#v", info)
			}

			got, rc, err := store.Get(ctx, "archive/users.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer func() { _ = rc.Close() }()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != `{"id":"u1"}` {
				t.Fatalf("unexpected contents %q", data)
			}
			if got.ContentType != "application/json" || got.Metadata["entity"] != "user" {
				t.Fatalf("metadata lost: %#v", got)
			}
		})
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := store.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
				t.Fatalf("expected error for existing key")
			}
		})
	}
}

func TestHeadAndDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Head(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if _, err := store.Put(ctx, "k", strings.NewReader("data"), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			info, err := store.Head(ctx, "k")
			if err != nil || info.Size != 4 {
				t.Fatalf("head: info=%#v err=%v", info, err)
			}
			existed, err := store.Delete(ctx, "k")
			if err != nil || !existed {
				t.Fatalf("delete: existed=%v err=%v", existed, err)
			}
			existed, err = store.Delete(ctx, "k")
			if err != nil || existed {
				t.Fatalf("second delete: existed=%v err=%v", existed, err)
			}
		})
	}
}

func TestListByPrefix(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"a/1", "a/2", "b/1"} {
				if _, err := store.Put(ctx, key, strings.NewReader(key), PutOptions{}); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}
			infos, err := store.List(ctx, "a/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "a/1" || infos[1].Key != "a/2" {
				t.Fatalf("unexpected listing %#v", infos)
			}
			all, err := store.List(ctx, "")
			if err != nil || len(all) != 3 {
				t.Fatalf("list all: %d err=%v", len(all), err)
			}
		})
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	for _, key := range []string{"", "/abs", "../escape", "a/../../escape"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

func TestFilesystemPutCleansUpOnSidecarFailure(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	// Occupy the sidecar path with a directory so the metadata write fails
	// after the data file has landed.
	if err := os.MkdirAll(filepath.Join(root, "k.meta"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := store.Put(context.Background(), "k", strings.NewReader("data"), PutOptions{}); err == nil {
		t.Fatalf("expected sidecar write failure")
	}
	if _, err := os.Stat(filepath.Join(root, "k")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("data file should have been removed, stat err %v", err)
	}
	infos, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %#v", infos)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("DAOCORE_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("DAOCORE_BLOB_DRIVER", "fs")
	t.Setenv("DAOCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("DAOCORE_BLOB_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}

	t.Setenv("DAOCORE_BLOB_DRIVER", "s3")
	t.Setenv("DAOCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

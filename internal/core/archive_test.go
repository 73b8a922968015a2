package core

import (
	"context"
	"testing"

	"daocore/internal/blob"
	"daocore/pkg/dao"
)

func TestArchiveAndRestore(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(t)
	blobs := blob.NewMemory()

	records := []dao.Record{
		{"id": "u1", "email": "ada@example.org", "age": int64(36)},
		{"id": "u2", "email": "grace@example.org", "age": int64(45)},
	}
	if _, err := svc.SaveSet(ctx, "user", records); err != nil {
		t.Fatalf("seed: %v", err)
	}

	written, err := svc.Archive(ctx, blobs, "snap/1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(written) != 1 || written[0].Key != "snap/1/user.json" {
		t.Fatalf("unexpected blobs %#v", written)
	}
	if written[0].Metadata["records"] != "2" {
		t.Fatalf("unexpected metadata %#v", written[0].Metadata)
	}

	restored := newMemoryService(t)
	if err := restored.Restore(ctx, blobs, "snap/1"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	count, err := restored.CountAll(ctx, "user")
	if err != nil || count != 2 {
		t.Fatalf("count = %d, err %v", count, err)
	}
	got, found, err := restored.FindByID(ctx, "user", "u1")
	if err != nil || !found {
		t.Fatalf("find: found=%v err=%v", found, err)
	}
	if got["email"] != "ada@example.org" {
		t.Fatalf("unexpected record %#v", got)
	}
}

func TestRestoreSkipsMissingEntities(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(t)
	if err := svc.Restore(ctx, blob.NewMemory(), "snap/none"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	count, err := svc.CountAll(ctx, "user")
	if err != nil || count != 0 {
		t.Fatalf("count = %d, err %v", count, err)
	}
}

func TestArchiveGeneratesPrefix(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(t)
	blobs := blob.NewMemory()
	written, err := svc.Archive(ctx, blobs, "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(written) != 1 || written[0].Key == "user.json" {
		t.Fatalf("expected generated prefix, got %#v", written)
	}
}

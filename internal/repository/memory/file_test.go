package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"televault/internal/domain"
	"televault/internal/domain/models"
)

func seedFile(t *testing.T, store *Store, id, accountID, folderPath, filename string) {
	t.Helper()
	err := store.Files().Create(context.Background(), &models.File{
		ID:         id,
		AccountID:  accountID,
		FolderPath: folderPath,
		Filename:   filename,
		Size:       1,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestFileGetByIDsSkipsMissing(t *testing.T) {
	store := NewStore()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")
	seedFile(t, store, "f2", "acct-1", "/docs", "b.pdf")

	files, err := store.Files().GetByIDs(context.Background(), []string{"f1", "missing", "f2"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %d, want 2", len(files))
	}
}

func TestFileRewriteFolderPrefixSegmentBoundary(t *testing.T) {
	store := NewStore()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")
	seedFile(t, store, "f2", "acct-1", "/docs/work", "b.pdf")
	seedFile(t, store, "f3", "acct-1", "/docs2", "c.pdf")
	seedFile(t, store, "f4", "acct-2", "/docs", "d.pdf")

	if err := store.Files().RewriteFolderPrefix(context.Background(), "acct-1", "/docs", "/archive"); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	want := map[string]string{
		"f1": "/archive",
		"f2": "/archive/work",
		"f3": "/docs2",
		"f4": "/docs",
	}
	for id, path := range want {
		file, err := store.Files().GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if file.FolderPath != path {
			t.Errorf("%s folderPath = %q, want %q", id, file.FolderPath, path)
		}
	}
}

// Folder names may contain characters that are pattern metacharacters in SQL
// LIKE. The cascade must treat them literally, whatever the backend.
func TestFileRewriteFolderPrefixLiteralSpecialChars(t *testing.T) {
	store := NewStore()
	seedFile(t, store, "f1", "acct-1", "/a%b", "a.pdf")
	seedFile(t, store, "f2", "acct-1", "/a%b/sub", "b.pdf")
	seedFile(t, store, "f3", "acct-1", "/aXb/sub", "c.pdf")
	seedFile(t, store, "f4", "acct-1", "/a_b", "d.pdf")

	if err := store.Files().RewriteFolderPrefix(context.Background(), "acct-1", "/a%b", "/renamed"); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	want := map[string]string{
		"f1": "/renamed",
		"f2": "/renamed/sub",
		"f3": "/aXb/sub",
		"f4": "/a_b",
	}
	for id, path := range want {
		file, err := store.Files().GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if file.FolderPath != path {
			t.Errorf("%s folderPath = %q, want %q", id, file.FolderPath, path)
		}
	}

	// The delete cascade applies the same literal-prefix rule.
	if err := store.Files().DeleteByFolderPrefix(context.Background(), "acct-1", "/a_b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Files().GetByID(context.Background(), "f4"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("f4 survived: %v", err)
	}
	if _, err := store.Files().GetByID(context.Background(), "f3"); err != nil {
		t.Errorf("unrelated folder swept up by delete: %v", err)
	}
}

func TestFileDeleteByFolderPrefix(t *testing.T) {
	store := NewStore()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")
	seedFile(t, store, "f2", "acct-1", "/docs/work", "b.pdf")
	seedFile(t, store, "f3", "acct-1", "/docs2", "c.pdf")

	if err := store.Files().DeleteByFolderPrefix(context.Background(), "acct-1", "/docs"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, id := range []string{"f1", "f2"} {
		if _, err := store.Files().GetByID(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s survived: %v", id, err)
		}
	}
	if _, err := store.Files().GetByID(context.Background(), "f3"); err != nil {
		t.Errorf("sibling deleted: %v", err)
	}
}

func TestFileSetDeletedFiltersListings(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")
	seedFile(t, store, "f2", "acct-1", "/docs", "b.pdf")

	now := time.Now()
	if err := store.Files().SetDeleted(ctx, []string{"f1"}, true, &now); err != nil {
		t.Fatalf("set deleted: %v", err)
	}

	live, err := store.Files().ListByFolder(ctx, "acct-1", "/docs")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(live) != 1 || live[0].ID != "f2" {
		t.Errorf("live = %+v, want just f2", live)
	}

	trash, err := store.Files().ListTrash(ctx, "acct-1")
	if err != nil {
		t.Fatalf("trash: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != "f1" {
		t.Errorf("trash = %+v, want just f1", trash)
	}
}

func TestFileExistsNameIgnoresTrash(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")

	exists, err := store.Files().ExistsName(ctx, "acct-1", "/docs", "a.pdf")
	if err != nil || !exists {
		t.Fatalf("ExistsName = (%v, %v), want (true, nil)", exists, err)
	}

	now := time.Now()
	if err := store.Files().SetDeleted(ctx, []string{"f1"}, true, &now); err != nil {
		t.Fatalf("set deleted: %v", err)
	}

	exists, err = store.Files().ExistsName(ctx, "acct-1", "/docs", "a.pdf")
	if err != nil || exists {
		t.Errorf("ExistsName = (%v, %v), want (false, nil) for trashed name", exists, err)
	}
}

func TestFileCloneOnRead(t *testing.T) {
	store := NewStore()
	seedFile(t, store, "f1", "acct-1", "/docs", "a.pdf")

	file, err := store.Files().GetByID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	file.Filename = "mutated.pdf"

	again, err := store.Files().GetByID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Filename != "a.pdf" {
		t.Errorf("caller mutation leaked into the store: %q", again.Filename)
	}
}

func TestTxManagerRespectsContext(t *testing.T) {
	store := NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.TxManager().ExecTx(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"televault/internal/domain"
	"televault/internal/domain/events"
	"televault/internal/domain/models"
)

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "acct-1", "/", "docs")
	if docs.Path != "/docs" || docs.ParentPath != "/" {
		t.Errorf("unexpected folder: %+v", docs)
	}

	work := env.mustCreateFolder(t, "acct-1", "/docs", "work")
	if work.Path != "/docs/work" || work.ParentPath != "/docs" {
		t.Errorf("unexpected folder: %+v", work)
	}

	if got := len(env.sink.byType(events.FolderCreated)); got != 2 {
		t.Errorf("FOLDER_CREATED events = %d, want 2", got)
	}
}

func TestCreateFolderRejectsMissingParent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.folders.CreateFolder(context.Background(), &models.CreateFolderRequest{
		AccountID:  "acct-1",
		ParentPath: "/missing",
		Name:       "child",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateFolderRejectsSiblingConflict(t *testing.T) {
	env := newTestEnv(t)

	env.mustCreateFolder(t, "acct-1", "/", "docs")
	_, err := env.folders.CreateFolder(context.Background(), &models.CreateFolderRequest{
		AccountID:  "acct-1",
		ParentPath: "/",
		Name:       "docs",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// Another account may use the same path freely.
	env.mustCreateFolder(t, "acct-2", "/", "docs")
}

func TestCreateFolderRejectsBadNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		folder  string
		wantErr error
	}{
		{name: "slash in name", folder: "a/b", wantErr: domain.ErrValidation},
		{name: "empty name", folder: "", wantErr: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.folders.CreateFolder(ctx, &models.CreateFolderRequest{
				AccountID:  "acct-1",
				ParentPath: "/",
				Name:       tt.folder,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	_, err := env.folders.CreateFolder(ctx, &models.CreateFolderRequest{
		AccountID:  "acct-1",
		ParentPath: "/a/../..",
		Name:       "x",
	})
	if !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestRenameFolderCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs := env.mustCreateFolder(t, "acct-1", "/", "docs")
	env.mustCreateFolder(t, "acct-1", "/docs", "work")
	env.mustCreateFolder(t, "acct-1", "/docs/work", "q1")
	// Sibling sharing a textual prefix must survive untouched.
	env.mustCreateFolder(t, "acct-1", "/", "docs2")

	inDocs := env.mustCreateFile(t, "acct-1", "/docs", "top.pdf", 10)
	inWork := env.mustCreateFile(t, "acct-1", "/docs/work", "deep.pdf", 20)
	inSibling := env.mustCreateFile(t, "acct-1", "/docs2", "other.pdf", 30)

	renamed, err := env.folders.RenameFolder(ctx, docs.ID, "archive")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Path != "/archive" || renamed.Name != "archive" {
		t.Errorf("unexpected renamed folder: %+v", renamed)
	}

	// Descendant folders follow.
	work, err := env.folders.GetFolder(ctx, "acct-1", "/archive/work")
	if err != nil {
		t.Fatalf("descendant folder missing after rename: %v", err)
	}
	if work.ParentPath != "/archive" {
		t.Errorf("parentPath = %q, want /archive", work.ParentPath)
	}
	if _, err := env.folders.GetFolder(ctx, "acct-1", "/archive/work/q1"); err != nil {
		t.Fatalf("deep descendant missing after rename: %v", err)
	}

	// Files follow too.
	for _, tc := range []struct {
		id   string
		want string
	}{
		{id: inDocs.ID, want: "/archive"},
		{id: inWork.ID, want: "/archive/work"},
		{id: inSibling.ID, want: "/docs2"},
	} {
		f, err := env.files.GetFile(ctx, tc.id)
		if err != nil {
			t.Fatalf("get file: %v", err)
		}
		if f.FolderPath != tc.want {
			t.Errorf("file %s folderPath = %q, want %q", tc.id, f.FolderPath, tc.want)
		}
	}

	// The sibling folder keeps its own path.
	if _, err := env.folders.GetFolder(ctx, "acct-1", "/docs2"); err != nil {
		t.Errorf("sibling folder disturbed by rename: %v", err)
	}
	if _, err := env.folders.GetFolder(ctx, "acct-1", "/docs"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("old path still resolves: %v", err)
	}

	if got := len(env.sink.byType(events.FolderRenamed)); got != 1 {
		t.Errorf("FOLDER_RENAMED events = %d, want 1", got)
	}
}

func TestRenameFolderSameNameIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "acct-1", "/", "docs")
	got, err := env.folders.RenameFolder(context.Background(), docs.ID, "docs")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Path != "/docs" {
		t.Errorf("path = %q, want /docs", got.Path)
	}
	if evs := env.sink.byType(events.FolderRenamed); len(evs) != 0 {
		t.Errorf("FOLDER_RENAMED emitted for a no-op rename")
	}
}

func TestRenameFolderRejectsConflict(t *testing.T) {
	env := newTestEnv(t)

	docs := env.mustCreateFolder(t, "acct-1", "/", "docs")
	env.mustCreateFolder(t, "acct-1", "/", "archive")

	_, err := env.folders.RenameFolder(context.Background(), docs.ID, "archive")
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestDeleteFolderCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustCreateFolder(t, "acct-1", "/", "docs")
	docsWork := env.mustCreateFolder(t, "acct-1", "/docs", "work")
	env.mustCreateFolder(t, "acct-1", "/", "keep")

	live := env.mustCreateFile(t, "acct-1", "/docs/work", "a.pdf", 100)
	trashed := env.mustCreateFile(t, "acct-1", "/docs/work", "b.pdf", 50)
	if _, err := env.files.DeleteFile(ctx, trashed.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}
	kept := env.mustCreateFile(t, "acct-1", "/keep", "c.pdf", 10)

	if _, err := env.folders.DeleteFolder(ctx, "acct-1", "/docs"); err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	// The subtree is gone, trashed files included.
	for _, id := range []string{live.ID, trashed.ID} {
		if _, err := env.files.GetFile(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("file %s survived the cascade: %v", id, err)
		}
	}
	for _, path := range []string{"/docs", "/docs/work"} {
		if _, err := env.folders.GetFolder(ctx, "acct-1", path); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("folder %s survived the cascade: %v", path, err)
		}
	}
	_ = docsWork

	// Unrelated data is untouched.
	if _, err := env.files.GetFile(ctx, kept.ID); err != nil {
		t.Errorf("unrelated file disturbed: %v", err)
	}

	deletedEvents := env.sink.byType(events.FolderDeleted)
	if len(deletedEvents) != 1 {
		t.Fatalf("FOLDER_DELETED events = %d, want 1", len(deletedEvents))
	}
	payload := deletedEvents[0].Payload.(events.FolderRemovedPayload)
	if payload.Path != "/docs" {
		t.Errorf("event path = %q, want /docs", payload.Path)
	}
}

func TestDeleteFolderRejectsRoot(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.folders.DeleteFolder(context.Background(), "acct-1", "/")
	if !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestGetFoldersListsChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustCreateFolder(t, "acct-1", "/", "b")
	env.mustCreateFolder(t, "acct-1", "/", "a")
	env.mustCreateFolder(t, "acct-1", "/a", "nested")

	children, err := env.folders.GetFolders(ctx, "acct-1", "/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if children[0].Name != "a" || children[1].Name != "b" {
		t.Errorf("children not sorted by name: %v, %v", children[0].Name, children[1].Name)
	}
}

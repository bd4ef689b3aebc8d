// Package handler exposes the metadata store over HTTP and upgrades the
// real-time subscription endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"televault/internal/domain/models"
	"televault/internal/httputil"
	"televault/internal/pathutil"
	"televault/internal/service"
)

// FileHandler handles HTTP requests for file operations
type FileHandler struct {
	files  *service.FileService
	logger *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Create registers a new file's metadata.
func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.files.CreateFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// List returns the non-deleted files of one folder.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		path = pathutil.Root
	}

	files, err := h.files.GetFiles(r.Context(), accountID, path)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// Get returns one file by id.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Delete moves a file to trash.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.DeleteFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Restore brings a trashed file back.
func (h *FileHandler) Restore(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.RestoreFileFromTrash(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeletePermanently removes a file's row for good.
func (h *FileHandler) DeletePermanently(w http.ResponseWriter, r *http.Request) {
	if err := h.files.DeleteFilePermanently(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rename changes a file's display name.
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.files.RenameFile(r.Context(), r.PathValue("id"), req.Filename)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Move reparents a file to another folder.
func (h *FileHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetPath string `json:"targetPath"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.files.MoveFile(r.Context(), r.PathValue("id"), req.TargetPath)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Copy duplicates a file in place under a collision-free name.
func (h *FileHandler) Copy(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.CopyFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// ToggleBookmark flips a file's bookmark flag.
func (h *FileHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	bookmarked, err := h.files.ToggleBookmarkFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"isBookmarked": bookmarked})
}

// BatchDelete trashes a set of files and returns the ids actually trashed.
func (h *FileHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs []string `json:"fileIds"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.files.BatchDeleteFiles(r.Context(), req.FileIDs)
	if err != nil {
		handleError(w, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string][]string{"deleted": deleted})
}

// BatchMove reparents a set of files and returns the updated rows.
func (h *FileHandler) BatchMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs    []string `json:"fileIds"`
		TargetPath string   `json:"targetPath"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	moved, err := h.files.BatchMoveFiles(r.Context(), req.FileIDs, req.TargetPath)
	if err != nil {
		handleError(w, err)
		return
	}
	if moved == nil {
		moved = []models.File{}
	}
	httputil.RespondJSON(w, http.StatusOK, moved)
}

// BatchBookmark sets the bookmark flag on a set of files.
func (h *FileHandler) BatchBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs    []string `json:"fileIds"`
		Bookmarked bool     `json:"bookmarked"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.files.BatchBookmarkFiles(r.Context(), req.FileIDs, req.Bookmarked)
	if err != nil {
		handleError(w, err)
		return
	}
	if updated == nil {
		updated = []models.File{}
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

// ListBookmarked returns an account's bookmarked files.
func (h *FileHandler) ListBookmarked(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}

	files, err := h.files.GetBookmarkedFiles(r.Context(), accountID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// ListTrash returns an account's trashed files.
func (h *FileHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}

	files, err := h.files.GetTrashFiles(r.Context(), accountID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// Stats returns account-wide usage totals.
func (h *FileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}

	stats, err := h.files.GetFileStats(r.Context(), accountID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, stats)
}

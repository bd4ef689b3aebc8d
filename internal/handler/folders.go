package handler

import (
	"log/slog"
	"net/http"

	"televault/internal/domain/models"
	"televault/internal/httputil"
	"televault/internal/pathutil"
	"televault/internal/service"
)

// FolderHandler handles HTTP requests for folder operations
type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// Create adds a folder under a parent path.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.folders.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// List returns the immediate child folders of a path.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		path = pathutil.Root
	}

	folders, err := h.folders.GetFolders(r.Context(), accountID, path)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folders)
}

// Delete removes a folder and everything beneath it.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireQuery(w, r, "account_id")
	if !ok {
		return
	}
	path, ok := requireQuery(w, r, "path")
	if !ok {
		return
	}

	if _, err := h.folders.DeleteFolder(r.Context(), accountID, path); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rename changes a folder's name and cascades the path rewrite to its
// subtree.
func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req models.RenameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.folders.RenameFolder(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folder)
}

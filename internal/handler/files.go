package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foundry-demos/code-interpreter-chat/internal/files"
	"github.com/foundry-demos/code-interpreter-chat/internal/model"
	"github.com/foundry-demos/code-interpreter-chat/pkg/logger"
)

// FilesHandler serves artifact listings and file bytes.
type FilesHandler struct {
	store  *files.Store
	logger *logger.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(store *files.Store, log *logger.Logger) *FilesHandler {
	return &FilesHandler{
		store:  store,
		logger: log,
	}
}

// List handles GET /api/v1/files
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.ListDownloadable()
	if err != nil {
		h.logger.Error("failed to list files", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.FileInfo{"files": infos})
}

// Serve handles GET /files/{name}: inline for images, attachment when
// requested or for data files.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := h.store.Path(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	isImage := strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg")
	if r.URL.Query().Get("download") == "1" || !isImage {
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}

	http.ServeFile(w, r, path)
}

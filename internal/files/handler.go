package files

import (
	"log/slog"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/textileco/pettycash/internal/platform/httpx"
)

// Handler serves stored uploads to authenticated users.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers file routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/files/{folder}/{name}", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	rel := path.Join(chi.URLParam(r, "folder"), chi.URLParam(r, "name"))
	f, info, err := h.store.Open(rel)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer f.Close()
	if ct := mime.TypeByExtension(filepath.Ext(info.Name())); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

package rest

import (
	"errors"
	"fmt"
	"net/http"

	"locagest/internal/clients"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) exportRents(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Exports == nil {
		unavailable(w)
		return
	}
	req, err := ValidateRentsExportRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	exportID, err := h.Exports.StartRentsExport(r.Context(), req.Fields, req.Filter, ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	SuccessAccepted(w, "export queued", map[string]interface{}{"export_id": exportID})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Exports == nil {
		unavailable(w)
		return
	}

	exports, err := h.Exports.GetExports(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Exports == nil {
		unavailable(w)
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}

	export, err := h.Exports.GetExport(r.Context(), h.ExportPrefix+exportIDParam, ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", export)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		http.NotFound(w, r)
		return
	}
	path, original, err := h.Files.Open(chi.URLParam(r, "file"))
	if errors.Is(err, clients.ErrFileNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("failed to access file")
		http.Error(w, "failed to access file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", original))
	http.ServeFile(w, r, path)
}

func (h *Handler) websocket(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Hub == nil {
		unavailable(w)
		return
	}
	h.Log.WithField("owner_id", ownerID).Debug("websocket connected")
	h.Hub.HandleWebSocket(w, r, ownerID)
}

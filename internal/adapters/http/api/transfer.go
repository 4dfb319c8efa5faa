package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
)

// Import payloads are bounded; an export of the largest player fits well
// under this.
const maxImportBytes = 1 << 20

// TransferDependencies defines the interface for export and import.
type TransferDependencies interface {
	ExportPlayer(ctx context.Context, playerID string) (model.Export, error)
	ImportPlayer(ctx context.Context, playerID string, raw []byte) (model.ImportRecord, error)
}

// TransferHandler handles per-player data export and import.
type TransferHandler struct {
	deps TransferDependencies
}

// NewTransferHandler creates a transfer handler.
func NewTransferHandler(deps TransferDependencies) *TransferHandler {
	return &TransferHandler{deps: deps}
}

// HandleExport handles GET /export/{player_id} requests.
func (h *TransferHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/export/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	export, err := h.deps.ExportPlayer(r.Context(), playerID)
	if err != nil {
		writeTransferError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// HandleImport handles POST /import/{player_id} requests. Payloads are
// schema-checked against the export envelope before anything is accepted.
func (h *TransferHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/import/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.ImportPlayer(r.Context(), playerID, raw)
	if err != nil {
		writeTransferError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

func writeTransferError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidImport):
		writeError(w, http.StatusBadRequest, "invalid_import", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

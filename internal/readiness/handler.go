package readiness

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

// Request body bounds.
const (
	maxImportBody    = 32 << 20
	maxPropagateBody = 1 << 20
)

// Handler exposes import, rebuild and propagation over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// Import handles POST /imports/{source} with a JSON array of candidates.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	src, err := source.ParseSource(r.PathValue("source"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	batch, err := DecodeBatch(src, http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		h.logger.Debugw("invalid import payload", "source", src, "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	res, err := h.svc.Import(r.Context(), batch)
	if err != nil {
		h.writeError(w, "import failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Clear handles DELETE /sources/{source}.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	src, err := source.ParseSource(r.PathValue("source"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	n, err := h.svc.Clear(r.Context(), src)
	if err != nil {
		h.writeError(w, "clear failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"source": src, "deleted": n})
}

func (h *Handler) ClearCombined(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearCombined(r.Context())
	if err != nil {
		h.writeError(w, "clear failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"source": CombinedSource, "deleted": n})
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Rebuild(r.Context())
	if err != nil {
		h.writeError(w, "rebuild failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"combined": n})
}

// PropagateRequest is the body of POST /propagate/{source}.
type PropagateRequest struct {
	Key    string   `json:"key"`
	Fields FieldSet `json:"fields"`
}

func (h *Handler) Propagate(w http.ResponseWriter, r *http.Request) {
	src, err := source.ParseSource(r.PathValue("source"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	var req PropagateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPropagateBody)).Decode(&req); err != nil {
		h.logger.Debugw("invalid propagate payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	n, err := h.svc.Propagate(r.Context(), src, req.Key, req.Fields)
	if err != nil {
		h.writeError(w, "propagate failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Batches handles GET /batches?limit=N.
func (h *Handler) Batches(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	batches, err := h.svc.Batches(r.Context(), limit)
	if err != nil {
		h.writeError(w, "list batches failed", err)
		return
	}
	if batches == nil {
		batches = []source.ImportBatch{}
	}
	h.writeJSON(w, http.StatusOK, batches)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context())
	if err != nil {
		h.writeError(w, "summary failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrNotPropagated), errors.Is(err, ErrUnknownField), errors.Is(err, ErrInvalidValue):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Warnw(msg, "err", err)
	} else {
		h.logger.Debugw(msg, "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": msg, "detail": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

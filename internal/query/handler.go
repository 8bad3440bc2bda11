package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/report"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

// Publisher stores exported workbooks somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, name string, body []byte) (string, error)
}

// Handler serves queries and workbook exports.
type Handler struct {
	engine    *Engine
	publisher Publisher
	logger    *zap.SugaredLogger
}

// NewHandler builds a handler. publisher may be nil, in which case export
// requests asking to publish are rejected.
func NewHandler(engine *Engine, publisher Publisher, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{engine: engine, publisher: publisher, logger: logger}
}

// Query handles GET /query?type=&field=&op=&value=.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromURL(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.engine.Query(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Export handles GET /query/export with the same parameters as Query. With
// publish=true the workbook is uploaded and its key returned instead.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromURL(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	publish, _ := strconv.ParseBool(r.URL.Query().Get("publish"))
	if publish && h.publisher == nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": report.ErrPublishDisabled.Error()})
		return
	}
	grid, err := h.engine.Table(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := report.WriteWorkbook(req.DataType.String(), grid.Headers, grid.Rows)
	if err != nil {
		h.logger.Warnw("export failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}
	name := ExportName(req.DataType, time.Now())
	if publish {
		key, err := h.publisher.Publish(r.Context(), name, body)
		if err != nil {
			h.logger.Warnw("publish failed", "key", name, "err", err)
			h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "publish failed"})
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"key": key, "rows": len(grid.Rows), "truncated": grid.Truncated})
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ExportName names an export workbook, e.g. Combined_Report_20240102_150405.xlsx.
func ExportName(d DataType, at time.Time) string {
	return fmt.Sprintf("%s_Report_%s.xlsx", d, at.UTC().Format("20060102_150405"))
}

func requestFromURL(r *http.Request) (Request, error) {
	q := r.URL.Query()
	op := q.Get("op")
	if op == "" {
		op = q.Get("operator")
	}
	return ParseRequest(q.Get("type"), q.Get("field"), op, q.Get("value"))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidOperator), errors.Is(err, ErrInvalidDateFormat),
		errors.Is(err, ErrUnknownField), errors.Is(err, ErrUnknownDataType):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, database.ErrStoreUnavailable):
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.logger.Warnw("query failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

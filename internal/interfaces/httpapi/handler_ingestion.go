package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/facr-ledger/internal/usecase"
)

const maxIngestRequestBytes = 1 << 20

func (h *Handler) IngestMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "IngestMatches")
	defer span.End()

	if h.ingestionService == nil {
		writeError(ctx, w, fmt.Errorf("%w: ingestion service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req ingestMatchesRequest
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %w", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	span.SetAttributes(attrIngestSources.Int(len(req.Sources)))
	report, err := h.ingestionService.IngestBatch(ctx, req.Sources)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest matches failed", "sources", len(req.Sources), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "ingest matches completed",
		"run_id", report.RunID,
		"total", report.Total,
		"committed", report.Committed,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	writeSuccess(ctx, w, http.StatusOK, toBatchReportDTO(report))
}

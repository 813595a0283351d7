package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gatherhq/gather-server/server/domain"
)

// respondError maps a domain error kind to its HTTP status. Errors without a
// kind are infrastructure failures and are logged but not echoed back.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		respondJSON(ctx, w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.KindForbidden:
		respondJSON(ctx, w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case domain.KindConflict:
		respondJSON(ctx, w, http.StatusConflict, errorResponse{Error: err.Error()})
	case domain.KindInvalidInput:
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.KindInternal:
		slog.ErrorContext(ctx, "internal invariant violated", slog.Any("error", err))
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	default:
		slog.ErrorContext(ctx, "request failed", slog.Any("error", err))
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

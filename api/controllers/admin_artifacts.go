package controllers

import (
	"net/http"
	"strings"

	"github.com/kbgenie/upload-genie/api/responses"
	"github.com/kbgenie/upload-genie/api/validators"
	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/pkg/enums"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/pagination"
)

// ListArtifacts returns the operator view: filtered, cursor-paginated rows.
func ListArtifacts(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifacts service unavailable"))
			return
		}

		params := artifacts.ListParams{}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProcessingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("upload_method")); raw != "" {
			method, err := enums.ParseUploadMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload_method filter"))
				return
			}
			params.Method = &method
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ArtifactStats reports row counts per processing status.
func ArtifactStats(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifacts service unavailable"))
			return
		}

		counts, err := svc.StatusCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"counts": counts})
	}
}

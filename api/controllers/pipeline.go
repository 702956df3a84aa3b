package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kbgenie/upload-genie/api/responses"
	"github.com/kbgenie/upload-genie/api/validators"
	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/pkg/enums"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/types"
)

type advanceStatusRequest struct {
	Status       string        `json:"status" validate:"required,oneof=pending processing completed rejected"`
	ErrorMessage *string       `json:"error_message,omitempty" validate:"omitempty,max=2048"`
	Metadata     types.JSONMap `json:"metadata,omitempty"`
}

type advanceStatusResponse struct {
	Applied  bool `json:"applied"`
	Artifact any  `json:"artifact"`
}

// AdvanceArtifactStatus applies a pipeline transition to one artifact. The
// caller is the processing pipeline, not the public portal, so failures come
// back with full machine codes.
func AdvanceArtifactStatus(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifacts service unavailable"))
			return
		}

		var req advanceStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseProcessingStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.Advance(r.Context(), artifacts.AdvanceInput{
			TrackerID:     chi.URLParam(r, "trackerId"),
			NextStatus:    status,
			ErrorMessage:  req.ErrorMessage,
			MetadataPatch: req.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, advanceStatusResponse{
			Applied:  !result.NoOp,
			Artifact: result.Artifact,
		})
	}
}

package controllers

import (
	"net/http"

	"github.com/kbgenie/upload-genie/api/responses"
	"github.com/kbgenie/upload-genie/api/validators"
	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/pkg/enums"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/types"
)

type createUploadRequest struct {
	Title        *string       `json:"title,omitempty" validate:"omitempty,max=512"`
	UploadMethod string        `json:"upload_method" validate:"required"`
	FileType     *string       `json:"file_type,omitempty" validate:"omitempty,max=64"`
	FileSize     *int64        `json:"file_size,omitempty" validate:"omitempty,gte=0"`
	Metadata     types.JSONMap `json:"metadata,omitempty"`
}

// CreateUpload registers a submitted artifact and hands back its tracker id.
func CreateUpload(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifacts service unavailable"))
			return
		}

		var req createUploadRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseUploadMethod(req.UploadMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload_method"))
			return
		}

		created, err := svc.Create(r.Context(), artifacts.CreateInput{
			Title:        req.Title,
			UploadMethod: method,
			FileType:     req.FileType,
			FileSize:     req.FileSize,
			Metadata:     req.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

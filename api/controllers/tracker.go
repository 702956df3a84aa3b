package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kbgenie/upload-genie/api/responses"
	"github.com/kbgenie/upload-genie/api/validators"
	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/internal/notifications"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/types"
)

// checkTrackerIDMessage is shown for both malformed and unknown ids so the
// public surface never reveals which ids are well-formed vs which exist.
const checkTrackerIDMessage = "We couldn't find that upload. Please check your tracker ID and try again."

// Machine-readable codes on the public query surface. Distinct so API
// consumers can tell the cases apart even though the message is shared.
const (
	queryCodeInvalidFormat = "INVALID_FORMAT"
	queryCodeNotFound      = "NOT_FOUND"
)

type trackerQueryRequest struct {
	TrackerID string `json:"tracker_id" validate:"required,min=8,max=36"`
}

// TrackerQuery answers the public status query: body carries the tracker id,
// the response carries the full record or a friendly failure.
func TrackerQuery(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req trackerQueryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			writeTrackerQueryFailure(w, queryCodeInvalidFormat)
			return
		}
		respondTrackerStatus(w, r, svc, logg, req.TrackerID)
	}
}

// TrackerStatus is the GET variant: the tracker id rides in the path.
func TrackerStatus(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondTrackerStatus(w, r, svc, logg, chi.URLParam(r, "trackerId"))
	}
}

// TrackerHealth reports whether the status store can answer queries, with a
// per-status row count for quick operator inspection.
func TrackerHealth(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracker service unavailable"))
			return
		}

		counts, err := svc.StatusCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"counts": counts,
		})
	}
}

// TrackerNotifications lists the messages recorded for a tracker id. Unknown
// ids come back as an empty list; malformed ids get the same friendly failure
// as a status query.
func TrackerNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		rows, err := svc.ListForTracker(r.Context(), chi.URLParam(r, "trackerId"))
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				writeTrackerQueryFailure(w, queryCodeInvalidFormat)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

func respondTrackerStatus(w http.ResponseWriter, r *http.Request, svc artifacts.Service, logg *logger.Logger, trackerID string) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracker service unavailable"))
		return
	}

	artifact, err := svc.GetStatus(r.Context(), trackerID)
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeValidation:
				writeTrackerQueryFailure(w, queryCodeInvalidFormat)
				return
			case pkgerrors.CodeNotFound:
				writeTrackerQueryFailure(w, queryCodeNotFound)
				return
			}
		}
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	responses.WriteSuccess(w, artifact)
}

// writeTrackerQueryFailure renders the shared friendly message with a
// case-specific machine code. Both cases answer 404 so the response shape
// never hints at whether an id of that form could exist.
func writeTrackerQueryFailure(w http.ResponseWriter, code string) {
	responses.WriteJSON(w, http.StatusNotFound, types.ErrorEnvelope{
		Error: types.APIError{
			Code:    code,
			Message: checkTrackerIDMessage,
		},
	})
}

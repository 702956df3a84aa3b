package artifacts

import (
	"time"

	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
	"github.com/kbgenie/upload-genie/pkg/types"
)

// CreateInput carries the submission metadata recorded alongside a fresh
// tracker id.
type CreateInput struct {
	Title        *string
	UploadMethod enums.UploadMethod
	FileType     *string
	FileSize     *int64
	Metadata     types.JSONMap
}

// AdvanceInput carries a pipeline-driven status change for one artifact.
type AdvanceInput struct {
	TrackerID     string
	NextStatus    enums.ProcessingStatus
	ErrorMessage  *string
	MetadataPatch types.JSONMap
}

// AdvanceResult reports what the transition did. NoOp is set when the
// artifact was already in the requested status and nothing was written.
type AdvanceResult struct {
	Artifact *models.TrackedArtifact
	NoOp     bool
}

// ListParams filters and pages the admin listing.
type ListParams struct {
	Status *enums.ProcessingStatus
	Method *enums.UploadMethod
	Limit  int
	Cursor string
}

// ListItem is one row of the admin listing.
type ListItem struct {
	TrackerID        string                 `json:"tracker_id"`
	Title            *string                `json:"title,omitempty"`
	UploadMethod     enums.UploadMethod     `json:"upload_method"`
	FileType         *string                `json:"file_type,omitempty"`
	FileSize         *int64                 `json:"file_size,omitempty"`
	ProcessingStatus enums.ProcessingStatus `json:"processing_status"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ProcessedAt      *time.Time             `json:"processed_at,omitempty"`
}

// ListResult bundles a page of artifacts with the cursor for the next page.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

// CreatedEvent is the payload emitted when an artifact is first recorded.
type CreatedEvent struct {
	TrackerID    string             `json:"tracker_id"`
	UploadMethod enums.UploadMethod `json:"upload_method"`
	Title        *string            `json:"title,omitempty"`
}

// AdvancedEvent is the payload emitted after every applied transition.
type AdvancedEvent struct {
	TrackerID  string                 `json:"tracker_id"`
	FromStatus enums.ProcessingStatus `json:"from_status"`
	ToStatus   enums.ProcessingStatus `json:"to_status"`
	Terminal   bool                   `json:"terminal"`
}

// TerminalEvent is the payload emitted when an artifact reaches a state with
// no outgoing transitions.
type TerminalEvent struct {
	TrackerID    string                 `json:"tracker_id"`
	FinalStatus  enums.ProcessingStatus `json:"final_status"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Title        *string                `json:"title,omitempty"`
}

func toListItem(row models.TrackedArtifact) ListItem {
	return ListItem{
		TrackerID:        row.TrackerID,
		Title:            row.Title,
		UploadMethod:     row.UploadMethod,
		FileType:         row.FileType,
		FileSize:         row.FileSize,
		ProcessingStatus: row.ProcessingStatus,
		ErrorMessage:     row.ErrorMessage,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		ProcessedAt:      row.ProcessedAt,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbgenie/upload-genie/pkg/enums"
	"github.com/kbgenie/upload-genie/pkg/types"
)

// TrackedArtifact is the durable record behind a tracker id: one row per
// uploaded item, carrying its processing lifecycle.
type TrackedArtifact struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	TrackerID    string             `gorm:"column:tracker_id;type:text;not null;uniqueIndex:ux_tracked_artifacts_tracker_id" json:"tracker_id"`
	Title        *string            `gorm:"column:title;type:text" json:"title,omitempty"`
	UploadMethod enums.UploadMethod `gorm:"column:upload_method;type:upload_method;not null" json:"upload_method"`
	FileType     *string            `gorm:"column:file_type;type:text" json:"file_type,omitempty"`
	FileSize     *int64             `gorm:"column:file_size;type:bigint" json:"file_size,omitempty"`

	ProcessingStatus enums.ProcessingStatus `gorm:"column:processing_status;type:processing_status;not null;default:pending" json:"processing_status"`
	ErrorMessage     *string                `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	Metadata         types.JSONMap          `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamptz;not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamptz;not null;autoUpdateTime:false" json:"updated_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at;type:timestamptz" json:"processed_at,omitempty"`
}

// TableName pins the table explicitly.
func (TrackedArtifact) TableName() string {
	return "tracked_artifacts"
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbgenie/upload-genie/pkg/enums"
)

// Notification is a queued submitter-facing message produced from artifact
// events. The email sender drains these rows; this service only records them.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TrackerID string                 `gorm:"type:text;not null"`
	Type      enums.NotificationType `gorm:"type:notification_type;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	SentAt    *time.Time             `gorm:"type:timestamptz"`
	CreatedAt time.Time              `gorm:"type:timestamptz;autoCreateTime"`
}

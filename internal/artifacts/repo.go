package artifacts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
	"github.com/kbgenie/upload-genie/pkg/pagination"
	"github.com/kbgenie/upload-genie/pkg/types"
)

// Repository exposes tracked artifact persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, artifact *models.TrackedArtifact) (*models.TrackedArtifact, error)
	FindByTrackerID(ctx context.Context, trackerID string) (*models.TrackedArtifact, error)
	AdvanceStatus(ctx context.Context, change statusChange) (int64, error)
	List(ctx context.Context, opts listQuery) ([]models.TrackedArtifact, error)
	CountByStatus(ctx context.Context) (map[enums.ProcessingStatus]int64, error)
}

// statusChange carries the compare-and-set update applied to a single row.
// The WHERE clause matches both tracker id and the expected current status,
// so a concurrent writer that got there first leaves this update with zero
// affected rows.
type statusChange struct {
	trackerID    string
	fromStatus   enums.ProcessingStatus
	toStatus     enums.ProcessingStatus
	errorMessage *string
	metadata     types.JSONMap
	updatedAt    time.Time
	processedAt  *time.Time
}

type listQuery struct {
	status *enums.ProcessingStatus
	method *enums.UploadMethod
	cursor *pagination.Cursor
	limit  int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an artifacts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, artifact *models.TrackedArtifact) (*models.TrackedArtifact, error) {
	if err := r.db.WithContext(ctx).Create(artifact).Error; err != nil {
		return nil, err
	}
	return artifact, nil
}

func (r *repository) FindByTrackerID(ctx context.Context, trackerID string) (*models.TrackedArtifact, error) {
	var row models.TrackedArtifact
	err := r.db.WithContext(ctx).
		Where("tracker_id = ?", trackerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) AdvanceStatus(ctx context.Context, change statusChange) (int64, error) {
	values := map[string]any{
		"processing_status": change.toStatus,
		"updated_at":        change.updatedAt,
	}
	if change.errorMessage != nil {
		values["error_message"] = *change.errorMessage
	}
	if change.metadata != nil {
		values["metadata"] = change.metadata
	}
	if change.processedAt != nil {
		values["processed_at"] = *change.processedAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.TrackedArtifact{}).
		Where("tracker_id = ? AND processing_status = ?", change.trackerID, change.fromStatus).
		UpdateColumns(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, opts listQuery) ([]models.TrackedArtifact, error) {
	query := r.db.WithContext(ctx).Model(&models.TrackedArtifact{})

	if opts.status != nil {
		query = query.Where("processing_status = ?", *opts.status)
	}
	if opts.method != nil {
		query = query.Where("upload_method = ?", *opts.method)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.TrackedArtifact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.ProcessingStatus]int64, error) {
	type statusCount struct {
		ProcessingStatus enums.ProcessingStatus
		Total            int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.TrackedArtifact{}).
		Select("processing_status, COUNT(*) AS total").
		Group("processing_status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.ProcessingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.ProcessingStatus] = row.Total
	}
	return counts, nil
}

package artifacts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/kbgenie/upload-genie/pkg/db"
	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
	"github.com/kbgenie/upload-genie/pkg/types"
)

func setupArtifactsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS tracked_artifacts (
  id TEXT PRIMARY KEY,
  tracker_id TEXT NOT NULL UNIQUE,
  title TEXT,
  file_type TEXT,
  file_size INTEGER,
  upload_method TEXT NOT NULL,
  processing_status TEXT NOT NULL DEFAULT 'pending',
  error_message TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  processed_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedArtifact(t *testing.T, db *gorm.DB, trackerID string, status enums.ProcessingStatus, created time.Time) *models.TrackedArtifact {
	t.Helper()

	row := &models.TrackedArtifact{
		ID:               uuid.New(),
		TrackerID:        trackerID,
		UploadMethod:     enums.UploadMethodWebUpload,
		ProcessingStatus: status,
		Metadata:         types.JSONMap{"origin": "portal"},
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestRepositoryInsertAndFind(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	row := &models.TrackedArtifact{
		ID:               uuid.New(),
		TrackerID:        "TRK-11111111-aaaa",
		UploadMethod:     enums.UploadMethodWebUpload,
		ProcessingStatus: enums.ProcessingStatusPending,
		Metadata:         types.JSONMap{"origin": "portal"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := repo.Insert(ctx, row)
	require.NoError(t, err)

	found, err := repo.FindByTrackerID(ctx, "TRK-11111111-aaaa")
	require.NoError(t, err)
	assert.Equal(t, row.ID, found.ID)
	assert.Equal(t, enums.ProcessingStatusPending, found.ProcessingStatus)
	assert.Equal(t, "portal", found.Metadata["origin"])
}

func TestRepositoryInsertDuplicateTrackerID(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seedArtifact(t, db, "TRK-11111111-aaaa", enums.ProcessingStatusPending, now)

	_, err := repo.Insert(ctx, &models.TrackedArtifact{
		ID:               uuid.New(),
		TrackerID:        "TRK-11111111-aaaa",
		UploadMethod:     enums.UploadMethodWebUpload,
		ProcessingStatus: enums.ProcessingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.Error(t, err)
	assert.True(t, pkgdb.IsUniqueViolation(err, ""))
}

func TestRepositoryFindMissing(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByTrackerID(context.Background(), "TRK-00000000-0000")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryAdvanceStatusCompareAndSet(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	seedArtifact(t, db, "TRK-11111111-aaaa", enums.ProcessingStatusPending, created)

	now := time.Now().UTC().Truncate(time.Second)
	rows, err := repo.AdvanceStatus(ctx, statusChange{
		trackerID:  "TRK-11111111-aaaa",
		fromStatus: enums.ProcessingStatusPending,
		toStatus:   enums.ProcessingStatusProcessing,
		updatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.FindByTrackerID(ctx, "TRK-11111111-aaaa")
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusProcessing, found.ProcessingStatus)
	assert.Nil(t, found.ProcessedAt)

	// Stale expected status must not match anything.
	rows, err = repo.AdvanceStatus(ctx, statusChange{
		trackerID:  "TRK-11111111-aaaa",
		fromStatus: enums.ProcessingStatusPending,
		toStatus:   enums.ProcessingStatusRejected,
		updatedAt:  now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestRepositoryAdvanceStatusTerminalWrite(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	seedArtifact(t, db, "TRK-11111111-aaaa", enums.ProcessingStatusProcessing, created)

	now := time.Now().UTC().Truncate(time.Second)
	msg := "virus scan failed"
	rows, err := repo.AdvanceStatus(ctx, statusChange{
		trackerID:    "TRK-11111111-aaaa",
		fromStatus:   enums.ProcessingStatusProcessing,
		toStatus:     enums.ProcessingStatusRejected,
		errorMessage: &msg,
		metadata:     types.JSONMap{"origin": "portal", "scanner": "clamav"},
		updatedAt:    now,
		processedAt:  &now,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	found, err := repo.FindByTrackerID(ctx, "TRK-11111111-aaaa")
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusRejected, found.ProcessingStatus)
	require.NotNil(t, found.ErrorMessage)
	assert.Equal(t, msg, *found.ErrorMessage)
	require.NotNil(t, found.ProcessedAt)
	assert.Equal(t, "clamav", found.Metadata["scanner"])
	assert.Equal(t, "portal", found.Metadata["origin"])
}

func TestRepositoryListFiltersAndPages(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	seedArtifact(t, db, "TRK-00000001-0001", enums.ProcessingStatusPending, base.Add(-3*time.Minute))
	seedArtifact(t, db, "TRK-00000002-0002", enums.ProcessingStatusCompleted, base.Add(-2*time.Minute))
	seedArtifact(t, db, "TRK-00000003-0003", enums.ProcessingStatusPending, base.Add(-time.Minute))

	pending := enums.ProcessingStatusPending
	rows, err := repo.List(ctx, listQuery{status: &pending, limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "TRK-00000003-0003", rows[0].TrackerID)
	assert.Equal(t, "TRK-00000001-0001", rows[1].TrackerID)

	rows, err = repo.List(ctx, listQuery{limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "TRK-00000003-0003", rows[0].TrackerID)
}

func TestRepositoryCountByStatus(t *testing.T) {
	db := setupArtifactsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	seedArtifact(t, db, "TRK-00000001-0001", enums.ProcessingStatusPending, base)
	seedArtifact(t, db, "TRK-00000002-0002", enums.ProcessingStatusPending, base)
	seedArtifact(t, db, "TRK-00000003-0003", enums.ProcessingStatusRejected, base)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[enums.ProcessingStatusPending])
	assert.Equal(t, int64(1), counts[enums.ProcessingStatusRejected])
}

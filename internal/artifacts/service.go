package artifacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbgenie/upload-genie/pkg/db"
	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/metrics"
	"github.com/kbgenie/upload-genie/pkg/outbox"
	pkgpagination "github.com/kbgenie/upload-genie/pkg/pagination"
	"github.com/kbgenie/upload-genie/pkg/tracker"
)

// createIDAttempts bounds how many fresh tracker ids Create will try when the
// unique index reports a collision.
const createIDAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the tracker lifecycle: record a submission, answer point
// queries, apply pipeline transitions, and list for operators.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.TrackedArtifact, error)
	GetStatus(ctx context.Context, trackerID string) (*models.TrackedArtifact, error)
	Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	StatusCounts(ctx context.Context) (map[enums.ProcessingStatus]int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.TrackerMetrics
	now     func() time.Time
}

// NewService builds an artifacts service with the required dependencies.
// Metrics may be nil; every other dependency is mandatory.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, logg *logger.Logger, met *metrics.TrackerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artifacts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  ob,
		logg:    logg,
		metrics: met,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.TrackedArtifact, error) {
	if !input.UploadMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid upload method")
	}
	if input.FileSize != nil && *input.FileSize < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_size must not be negative")
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var created *models.TrackedArtifact
	for attempt := 0; attempt < createIDAttempts; attempt++ {
		now := s.now().UTC()
		artifact := &models.TrackedArtifact{
			ID:               uuid.New(),
			TrackerID:        tracker.NewID(input.UploadMethod),
			Title:            input.Title,
			UploadMethod:     input.UploadMethod,
			FileType:         input.FileType,
			FileSize:         input.FileSize,
			ProcessingStatus: enums.ProcessingStatusPending,
			Metadata:         metadata,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.Insert(ctx, artifact); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventArtifactCreated,
				AggregateType: enums.AggregateArtifact,
				AggregateID:   artifact.ID,
				Version:       1,
				Data: CreatedEvent{
					TrackerID:    artifact.TrackerID,
					UploadMethod: artifact.UploadMethod,
					Title:        artifact.Title,
				},
			}
			return s.outbox.Emit(ctx, tx, event)
		})
		if err == nil {
			created = artifact
			break
		}
		if db.IsUniqueViolation(err, "ux_tracked_artifacts_tracker_id") {
			logCtx := s.logg.WithTrackerID(ctx, artifact.TrackerID)
			s.logg.Warn(logCtx, "tracker id collision, regenerating")
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracked artifact")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "exhausted tracker id attempts")
	}

	s.metrics.IncCreate(created.UploadMethod.String())
	logCtx := s.logg.WithTrackerID(ctx, created.TrackerID)
	s.logg.Info(logCtx, "tracked artifact created")
	return created, nil
}

func (s *service) GetStatus(ctx context.Context, trackerID string) (*models.TrackedArtifact, error) {
	if err := tracker.ValidateID(trackerID); err != nil {
		s.metrics.IncQuery("invalid_format")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tracker id")
	}

	row, err := s.repo.FindByTrackerID(ctx, trackerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncQuery("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracker id not found")
		}
		s.metrics.IncQuery("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tracked artifact")
	}

	s.metrics.IncQuery("found")
	return row, nil
}

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error) {
	if err := tracker.ValidateID(input.TrackerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tracker id")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid processing status")
	}
	if input.ErrorMessage != nil && input.NextStatus != enums.ProcessingStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error_message is only accepted on rejection")
	}

	var result AdvanceResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByTrackerID(ctx, input.TrackerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "tracker id not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tracked artifact")
		}

		// Retry of an already-applied transition: nothing is written, so
		// updated_at and processed_at keep their original values.
		if current.ProcessingStatus == input.NextStatus {
			result = AdvanceResult{Artifact: current, NoOp: true}
			return nil
		}

		if !current.ProcessingStatus.CanTransitionTo(input.NextStatus) {
			return s.transitionConflict(ctx, current.ProcessingStatus, input)
		}

		now := s.now().UTC()
		change := statusChange{
			trackerID:    input.TrackerID,
			fromStatus:   current.ProcessingStatus,
			toStatus:     input.NextStatus,
			errorMessage: input.ErrorMessage,
			updatedAt:    now,
		}
		if input.MetadataPatch != nil {
			change.metadata = current.Metadata.Merge(input.MetadataPatch)
		}
		if input.NextStatus.IsTerminal() {
			change.processedAt = &now
		}

		rows, err := repo.AdvanceStatus(ctx, change)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance tracked artifact")
		}
		if rows == 0 {
			// A concurrent writer moved the row first. Re-read and decide
			// whether its transition landed us where this call wanted to go.
			latest, err := repo.FindByTrackerID(ctx, input.TrackerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read tracked artifact")
			}
			if latest.ProcessingStatus == input.NextStatus {
				result = AdvanceResult{Artifact: latest, NoOp: true}
				return nil
			}
			return s.transitionConflict(ctx, latest.ProcessingStatus, input)
		}

		updated := *current
		updated.ProcessingStatus = input.NextStatus
		updated.UpdatedAt = now
		if change.errorMessage != nil {
			updated.ErrorMessage = change.errorMessage
		}
		if change.metadata != nil {
			updated.Metadata = change.metadata
		}
		if change.processedAt != nil {
			updated.ProcessedAt = change.processedAt
		}
		result = AdvanceResult{Artifact: &updated}

		event := outbox.DomainEvent{
			EventType:     enums.EventArtifactAdvanced,
			AggregateType: enums.AggregateArtifact,
			AggregateID:   updated.ID,
			Version:       1,
			Data: AdvancedEvent{
				TrackerID:  updated.TrackerID,
				FromStatus: current.ProcessingStatus,
				ToStatus:   updated.ProcessingStatus,
				Terminal:   updated.ProcessingStatus.IsTerminal(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		if updated.ProcessingStatus.IsTerminal() {
			terminal := outbox.DomainEvent{
				EventType:     enums.EventArtifactTerminal,
				AggregateType: enums.AggregateArtifact,
				AggregateID:   updated.ID,
				Version:       1,
				Data: TerminalEvent{
					TrackerID:    updated.TrackerID,
					FinalStatus:  updated.ProcessingStatus,
					ErrorMessage: updated.ErrorMessage,
					Title:        updated.Title,
				},
			}
			if err := s.outbox.Emit(ctx, tx, terminal); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncAdvance(input.NextStatus.String(), "error")
		return nil, err
	}

	outcome := "applied"
	if result.NoOp {
		outcome = "noop"
	}
	s.metrics.IncAdvance(input.NextStatus.String(), outcome)
	return &result, nil
}

// transitionConflict builds the state-machine violation error and logs it.
// An illegal transition means an upstream collaborator is confused about the
// lifecycle, which should never happen silently.
func (s *service) transitionConflict(ctx context.Context, from enums.ProcessingStatus, input AdvanceInput) error {
	err := pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("transition %s -> %s is not allowed", from, input.NextStatus))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tracker_id":  input.TrackerID,
		"from_status": from.String(),
		"to_status":   input.NextStatus.String(),
	})
	s.logg.Error(logCtx, "illegal status transition requested", err)
	return err
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid processing status filter")
	}
	if params.Method != nil && !params.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid upload method filter")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		status: params.Status,
		method: params.Method,
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracked artifacts")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}

func (s *service) StatusCounts(ctx context.Context) (map[enums.ProcessingStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tracked artifacts")
	}
	for _, status := range []enums.ProcessingStatus{
		enums.ProcessingStatusPending,
		enums.ProcessingStatusProcessing,
		enums.ProcessingStatusCompleted,
		enums.ProcessingStatusRejected,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

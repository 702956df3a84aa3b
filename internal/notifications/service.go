package notifications

import (
	"context"

	"github.com/kbgenie/upload-genie/pkg/db/models"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
	"github.com/kbgenie/upload-genie/pkg/tracker"
)

// Service defines read access to the notifications recorded for a tracker id.
type Service interface {
	ListForTracker(ctx context.Context, trackerID string) ([]models.Notification, error)
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForTracker(ctx context.Context, trackerID string) ([]models.Notification, error) {
	if err := tracker.ValidateID(trackerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tracker id")
	}

	rows, err := s.repo.ListByTrackerID(ctx, trackerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

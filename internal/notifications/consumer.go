package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
	"github.com/kbgenie/upload-genie/pkg/logger"
	"github.com/kbgenie/upload-genie/pkg/outbox"
	"github.com/kbgenie/upload-genie/pkg/outbox/idempotency"
)

const artifactNotificationConsumer = "artifact-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns artifact lifecycle changes into
// submitter notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an artifact notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventArtifactCreated) && eventType != string(enums.EventArtifactTerminal) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, artifactNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := buildNotification(enums.OutboxEventType(eventType), envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		_ = c.idempotency.Delete(ctx, artifactNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		return processResult{ack: true}
	}

	logCtx = c.logg.WithTrackerID(logCtx, notification.TrackerID)
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to record notification", err)
		_ = c.idempotency.Delete(ctx, artifactNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "submitter notification recorded")
	return processResult{ack: true}
}

type artifactCreatedPayload struct {
	TrackerID string  `json:"tracker_id"`
	Title     *string `json:"title,omitempty"`
}

type artifactTerminalPayload struct {
	TrackerID    string                 `json:"tracker_id"`
	FinalStatus  enums.ProcessingStatus `json:"final_status"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Title        *string                `json:"title,omitempty"`
}

// buildNotification maps an event payload to the notification row it should
// produce. A nil row with nil error means the event needs no notification.
func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventArtifactCreated:
		var payload artifactCreatedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.TrackerID == "" {
			return nil, fmt.Errorf("tracker id missing in created payload")
		}
		return &models.Notification{
			TrackerID: payload.TrackerID,
			Type:      enums.NotificationTypeUploadReceived,
			Title:     "Upload received",
			Message:   fmt.Sprintf("We received %s. Track its progress with id %s.", describeTitle(payload.Title), payload.TrackerID),
		}, nil
	case enums.EventArtifactTerminal:
		var payload artifactTerminalPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.TrackerID == "" {
			return nil, fmt.Errorf("tracker id missing in terminal payload")
		}
		switch payload.FinalStatus {
		case enums.ProcessingStatusCompleted:
			return &models.Notification{
				TrackerID: payload.TrackerID,
				Type:      enums.NotificationTypeUploadCompleted,
				Title:     "Upload processed",
				Message:   fmt.Sprintf("%s has been processed and published.", describeTitle(payload.Title)),
			}, nil
		case enums.ProcessingStatusRejected:
			message := fmt.Sprintf("%s could not be processed.", describeTitle(payload.Title))
			if payload.ErrorMessage != nil && *payload.ErrorMessage != "" {
				message = fmt.Sprintf("%s could not be processed: %s", describeTitle(payload.Title), *payload.ErrorMessage)
			}
			return &models.Notification{
				TrackerID: payload.TrackerID,
				Type:      enums.NotificationTypeUploadRejected,
				Title:     "Upload rejected",
				Message:   message,
			}, nil
		default:
			return nil, fmt.Errorf("unexpected terminal status %q", payload.FinalStatus)
		}
	default:
		return nil, nil
	}
}

func describeTitle(title *string) string {
	if title != nil && *title != "" {
		return fmt.Sprintf("your upload %q", *title)
	}
	return "your upload"
}

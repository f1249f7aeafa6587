package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-studymate-be/internal/model"
	"ai-studymate-be/internal/pkg/logger"
	"ai-studymate-be/internal/repository"
	"ai-studymate-be/pkg/events"
	pktNats "ai-studymate-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.NotificationRepository, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", event.EventType()), map[string]interface{}{"type": event.EventType()})

	switch event.EventType() {
	case "REPORT_READY":
		return s.notifyUser(ctx, event, "REPORT_READY", "report",
			"Report ready",
			fmt.Sprintf("Your report %q is ready to read.", payloadString(event, "title")),
			payloadUUID(event, "report_id"),
		)
	case "USER_LOGIN":
		// Audit-only event, no inbox entry.
		return nil
	default:
		s.logger.Warn("NotificationService", fmt.Sprintf("No handler for event type '%s'", event.EventType()), nil)
		return nil
	}
}

func (s *NotificationService) notifyUser(ctx context.Context, event events.Event, typeCode, entityType, title, message string, entityID *uuid.UUID) error {
	userID := payloadUUID(event, "user_id")
	if userID == nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has no user_id, dropping", event.EventType()), nil)
		return nil
	}

	metaJSON, _ := json.Marshal(event.Payload())

	notif := model.Notification{
		ID:         uuid.New(),
		UserID:     *userID,
		TypeCode:   typeCode,
		EntityType: entityType,
		EntityID:   entityID,
		Title:      title,
		Message:    message,
		Metadata:   datatypes.JSON(metaJSON),
		CreatedAt:  time.Now(),
		IsRead:     false,
	}

	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // NATS will retry
	}

	if s.delivery != nil {
		s.delivery.Send(*userID, notif)
	}
	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func payloadString(event events.Event, key string) string {
	v, _ := event.Payload()[key].(string)
	return v
}

func payloadUUID(event events.Event, key string) *uuid.UUID {
	raw, ok := event.Payload()[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil
		}
		return &id
	case uuid.UUID:
		return &v
	default:
		return nil
	}
}

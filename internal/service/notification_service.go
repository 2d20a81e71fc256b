package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/events"
)

// Notifier announces complaint events. Calls are best-effort and never fail
// the operation that triggered them.
type Notifier interface {
	NotifyCreated(ctx context.Context, complaint *domain.Complaint)
	NotifyStatusChanged(ctx context.Context, complaint *domain.Complaint, old domain.ComplaintStatus, actor, remarks string)
	NotifyEscalated(ctx context.Context, complaint *domain.Complaint, reason string)
	NotifyAssigned(ctx context.Context, complaint *domain.Complaint, staff *domain.User, assigner string)
}

// NotificationService publishes complaint events and handles their delivery.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes delivery handlers. When publisher is non-nil
// every event is also relayed to the configured pub/sub channel.
func (n *NotificationService) RegisterHandlers(publisher events.Publisher) {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventComplaintEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.handleAssigned)

	if publisher == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return
	}
	relay := events.NewRedisRelay(publisher, n.cfg.RedisChannel)
	for _, eventType := range []events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintStatusChanged,
		events.EventComplaintEscalated,
		events.EventComplaintAssigned,
	} {
		n.dispatcher.Subscribe(eventType, relay)
	}
}

// NotifyCreated announces a new complaint.
func (n *NotificationService) NotifyCreated(ctx context.Context, complaint *domain.Complaint) {
	n.publish(ctx, complaint, events.EventComplaintCreated, events.Actor{ID: complaint.SubmitterID, Role: domain.RoleUser},
		events.ComplaintCreatedPayload{
			CategoryID: complaint.CategoryID,
			Priority:   complaint.Priority,
			Title:      complaint.Title,
			Deadline:   complaint.Deadline,
		})
}

// NotifyStatusChanged announces a status transition.
func (n *NotificationService) NotifyStatusChanged(ctx context.Context, complaint *domain.Complaint, old domain.ComplaintStatus, actor, remarks string) {
	n.publish(ctx, complaint, events.EventComplaintStatusChanged, events.Actor{ID: actor},
		events.ComplaintStatusChangedPayload{
			OldStatus: old,
			NewStatus: complaint.Status,
			Remarks:   remarks,
		})
}

// NotifyEscalated announces an escalation.
func (n *NotificationService) NotifyEscalated(ctx context.Context, complaint *domain.Complaint, reason string) {
	n.publish(ctx, complaint, events.EventComplaintEscalated, events.Actor{ID: complaint.Escalation.EscalatedBy},
		events.ComplaintEscalatedPayload{
			Reason:      reason,
			EscalatedBy: complaint.Escalation.EscalatedBy,
			Deadline:    complaint.Deadline,
		})
}

// NotifyAssigned announces an assignment.
func (n *NotificationService) NotifyAssigned(ctx context.Context, complaint *domain.Complaint, staff *domain.User, assigner string) {
	payload := events.ComplaintAssignedPayload{AssignedBy: assigner}
	if staff != nil {
		payload.AssigneeID = staff.ID
		payload.AssigneeName = staff.Name
	}
	n.publish(ctx, complaint, events.EventComplaintAssigned, events.Actor{ID: assigner}, payload)
}

func (n *NotificationService) publish(ctx context.Context, complaint *domain.Complaint, eventType events.EventType, actor events.Actor, payload interface{}) {
	if n == nil || n.dispatcher == nil || complaint == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaint.ID,
		TicketRef:   complaint.TicketRef,
		Actor:       actor,
		Timestamp:   n.now().UTC(),
		Payload:     payload,
	}
	if err := n.dispatcher.Publish(ctx, event); err != nil {
		n.logger.Warn("publish event failed",
			zap.String("event_type", string(eventType)),
			zap.String("complaint_id", complaint.ID),
			zap.Error(err))
	}
}

func (n *NotificationService) handleComplaintCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintCreated", zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	n.logEmailIntent(event)
	n.logWebhookIntent(event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintStatusChanged", zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	n.logWebhookIntent(event)
	return nil
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	n.logger.Warn("ComplaintEscalated", zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	n.logEmailIntent(event)
	n.logWebhookIntent(event)
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintAssigned", zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	n.logEmailIntent(event)
	return nil
}

// logEmailIntent records that an email would go out for event. Delivery
// itself belongs to an external mailer.
func (n *NotificationService) logEmailIntent(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification intent",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("complaint_id", event.ComplaintID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) logWebhookIntent(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification intent",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("complaint_id", event.ComplaintID),
		zap.String("event_type", string(event.Type)))
}

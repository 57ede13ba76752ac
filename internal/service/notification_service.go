package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-auth/internal/config"
	"github.com/spec-kit/shop-auth/internal/events"
)

// NotificationService emits notifications for account and session events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
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
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventSessionsRevoked, n.handleSessionsRevoked)
	n.dispatcher.Subscribe(events.EventRefreshRejected, n.handleRefreshRejected)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("principal_id", event.PrincipalID))
	if payload, ok := event.Payload.(events.UserRegisteredPayload); ok {
		n.sendEmailStub(ctx, payload.Email, "welcome", event)
	}
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionsRevoked(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionsRevoked", zap.String("principal_id", event.PrincipalID), zap.Any("payload", event.Payload))
	n.sendEmailStub(ctx, n.cfg.AdminEmail, "sessions revoked", event)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRefreshRejected(ctx context.Context, event events.Event) error {
	n.logger.Debug("RefreshRejected", zap.String("principal_id", event.PrincipalID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, to, subject string, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(to) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("principal_id", event.PrincipalID),
		zap.String("event_type", string(event.Type)))
}

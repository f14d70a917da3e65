package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/busline/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService records back-office activity and serves it to admins.
type NotificationService struct {
	logs   models.ActivityLogRepo
	logger *slog.Logger
}

func NewNotificationService(logs models.ActivityLogRepo, logger *slog.Logger) *NotificationService {
	return &NotificationService{logs: logs, logger: logger}
}

// Record stores an activity entry. Failures are logged, never returned: the
// action that triggered the entry has already happened.
func (ns *NotificationService) Record(ctx context.Context, userID primitive.ObjectID, kind models.LogType, format string, args ...interface{}) {
	entry := &models.ActivityLog{
		UserID:      userID,
		Type:        kind,
		Description: fmt.Sprintf(format, args...),
		CreatedAt:   time.Now().UTC(),
	}
	if err := ns.logs.InsertLog(ctx, entry); err != nil {
		ns.logger.Error("failed to record activity", "type", kind, "user_id", userID.Hex(), "error", err)
	}
}

func (ns *NotificationService) List(ctx context.Context, limit int64, unreadOnly bool) ([]*models.ActivityLog, error) {
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	return ns.logs.ListLogs(ctx, models.LogFilter{UnreadOnly: unreadOnly, Limit: limit})
}

func (ns *NotificationService) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	err := ns.logs.MarkLogRead(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("notification %w", ErrNotFound)
	}
	return err
}

func (ns *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return ns.logs.MarkAllLogsRead(ctx)
}

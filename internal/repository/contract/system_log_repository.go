package contract

import (
	"context"

	"travel-chat-be/internal/model"
)

// SystemLogRepository is append-only; audit rows are never updated.
type SystemLogRepository interface {
	Create(ctx context.Context, entry *model.SystemLog) error
}

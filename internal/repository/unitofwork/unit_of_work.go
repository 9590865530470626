package unitofwork

import (
	"context"

	"travel-chat-be/internal/repository/contract"
)

// UnitOfWork groups repository access. Each persistence step of a chat
// turn commits independently; Begin/Commit exist for callers that do
// need a transaction (session delete cascade).
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	SystemLogRepository() contract.SystemLogRepository
}

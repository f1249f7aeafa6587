package unitofwork

import (
	"context"

	"ai-studymate-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ReportRepository() contract.ReportRepository
	ReportEmbeddingRepository() contract.ReportEmbeddingRepository
	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}

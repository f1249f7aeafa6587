package contract

import (
	"context"

	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredReportEmbedding wraps ReportEmbedding with its similarity score
type ScoredReportEmbedding struct {
	Embedding  *entity.ReportEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type ReportEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ReportEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.ReportEmbedding) error
	DeleteByReportId(ctx context.Context, reportId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReportEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the nearest chunks for a user's reports, excluding one report.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, excludeReportId uuid.UUID) ([]*ScoredReportEmbedding, error)
}

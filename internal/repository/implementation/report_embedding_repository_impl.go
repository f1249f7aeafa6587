package implementation

import (
	"context"

	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/mapper"
	"ai-studymate-be/internal/model"
	"ai-studymate-be/internal/repository/contract"
	"ai-studymate-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ReportEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReportEmbeddingMapper
}

func NewReportEmbeddingRepository(db *gorm.DB) contract.ReportEmbeddingRepository {
	return &ReportEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewReportEmbeddingMapper(),
	}
}

func (r *ReportEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReportEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.ReportEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReportEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ReportEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.ReportEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ReportEmbeddingRepositoryImpl) DeleteByReportId(ctx context.Context, reportId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("report_id = ?", reportId).Delete(&model.ReportEmbedding{}).Error
}

func (r *ReportEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReportEmbedding, error) {
	var models []*model.ReportEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ReportEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ReportEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ReportEmbedding{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

// SearchSimilar returns the nearest report chunks for a user, ranked by cosine
// similarity. Cosine distance in pgvector is 1 - cosine_similarity, so the
// score is computed as 1 - (embedding_value <=> query_vector).
func (r *ReportEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, excludeReportId uuid.UUID) ([]*contract.ScoredReportEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ReportEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("report_embeddings").
		Select("report_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN reports ON reports.id = report_embeddings.report_id").
		Where("reports.user_id = ?", userId).
		Where("reports.deleted_at IS NULL").
		Where("report_embeddings.report_id <> ?", excludeReportId).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredReportEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredReportEmbedding{
			Embedding:  r.mapper.ToEntity(&res.ReportEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

package mapper

import (
	"encoding/json"
	"time"

	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ReportMapper struct{}

func NewReportMapper() *ReportMapper {
	return &ReportMapper{}
}

func (m *ReportMapper) ToEntity(r *model.Report) *entity.Report {
	if r == nil {
		return nil
	}
	e := &entity.Report{
		Id:           r.Id,
		UserId:       r.UserId,
		Subject:      r.Subject,
		Title:        r.Title,
		Overview:     r.Overview,
		Applications: r.Applications,
		Summary:      r.Summary,
		Recap:        r.Recap,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    timePtr(r.UpdatedAt),
	}
	// Stored as jsonb; a decode failure just leaves the slice empty.
	_ = json.Unmarshal(r.Glossary, &e.Glossary)
	_ = json.Unmarshal(r.Concepts, &e.Concepts)
	_ = json.Unmarshal(r.Formulas, &e.Formulas)
	_ = json.Unmarshal(r.Citations, &e.Citations)
	return e
}

func (m *ReportMapper) ToModel(e *entity.Report) *model.Report {
	if e == nil {
		return nil
	}
	r := &model.Report{
		Id:           e.Id,
		UserId:       e.UserId,
		Subject:      e.Subject,
		Title:        e.Title,
		Overview:     e.Overview,
		Applications: e.Applications,
		Summary:      e.Summary,
		Recap:        e.Recap,
		CreatedAt:    e.CreatedAt,
	}
	if e.UpdatedAt != nil {
		r.UpdatedAt = *e.UpdatedAt
	}
	r.Glossary = marshalJSON(e.Glossary)
	r.Concepts = marshalJSON(e.Concepts)
	r.Formulas = marshalJSON(e.Formulas)
	r.Citations = marshalJSON(e.Citations)
	return r
}

func marshalJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type ReportEmbeddingMapper struct{}

func NewReportEmbeddingMapper() *ReportEmbeddingMapper {
	return &ReportEmbeddingMapper{}
}

func (m *ReportEmbeddingMapper) ToEntity(r *model.ReportEmbedding) *entity.ReportEmbedding {
	if r == nil {
		return nil
	}
	return &entity.ReportEmbedding{
		Id:             r.Id,
		ReportId:       r.ReportId,
		Document:       r.Document,
		EmbeddingValue: r.EmbeddingValue.Slice(),
		ChunkIndex:     r.ChunkIndex,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *ReportEmbeddingMapper) ToModel(e *entity.ReportEmbedding) *model.ReportEmbedding {
	if e == nil {
		return nil
	}
	return &model.ReportEmbedding{
		Id:             e.Id,
		ReportId:       e.ReportId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
	}
}

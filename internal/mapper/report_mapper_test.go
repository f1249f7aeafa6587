package mapper

import (
	"testing"
	"time"

	"ai-studymate-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReportMapperGlossaryRoundTrip(t *testing.T) {
	m := NewReportMapper()

	e := &entity.Report{
		Id:      uuid.New(),
		UserId:  uuid.New(),
		Subject: "Photosynthesis",
		Title:   "Photosynthesis: How Plants Make Food",
		Glossary: []entity.GlossaryTerm{
			{Term: "Chlorophyll", Definition: "The green pigment that absorbs light."},
			{Term: "Stomata", Definition: "Pores on the leaf surface."},
		},
		Concepts: []entity.Concept{
			{Name: "Light reactions", Explanation: "Happen in the thylakoid membrane."},
		},
		CreatedAt: time.Now(),
	}

	got := m.ToEntity(m.ToModel(e))

	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.Glossary, got.Glossary)
	assert.Equal(t, e.Concepts, got.Concepts)
	assert.Empty(t, got.Formulas)
	assert.Nil(t, got.UpdatedAt, "zero UpdatedAt must map to nil")
}

func TestReportEmbeddingMapperKeepsVector(t *testing.T) {
	m := NewReportEmbeddingMapper()

	e := &entity.ReportEmbedding{
		Id:             uuid.New(),
		ReportId:       uuid.New(),
		Document:       "chunk text",
		EmbeddingValue: []float32{0.1, 0.2, 0.3},
		ChunkIndex:     2,
		CreatedAt:      time.Now(),
	}

	got := m.ToEntity(m.ToModel(e))

	assert.Equal(t, e.EmbeddingValue, got.EmbeddingValue)
	assert.Equal(t, e.ChunkIndex, got.ChunkIndex)
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReportEmbedding struct {
	Id             uuid.UUID
	ReportId       uuid.UUID
	Document       string
	EmbeddingValue []float32
	ChunkIndex     int
	CreatedAt      time.Time
}

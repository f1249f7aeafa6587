package dto

import (
	"time"

	"ai-studymate-be/internal/entity"

	"github.com/google/uuid"
)

type GenerateReportRequest struct {
	Subject string `json:"subject" validate:"required,min=2"`
}

type GenerateReportResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type ReportListItem struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// ShowReportResponse carries the annotated HTML renderings. Markdown fields
// are converted to HTML with glossary tooltips injected; structured fields
// come back raw for the client to lay out.
type ShowReportResponse struct {
	Id               uuid.UUID             `json:"id"`
	Title            string                `json:"title"`
	OverviewHTML     string                `json:"overview_html"`
	ConceptsHTML     []AnnotatedConcept    `json:"concepts_html"`
	ApplicationsHTML string                `json:"applications_html"`
	SummaryHTML      string                `json:"summary_html"`
	Recap            string                `json:"recap"`
	Glossary         []entity.GlossaryTerm `json:"glossary"`
	Formulas         []entity.FormulaStep  `json:"formulas"`
	Citations        []entity.Citation     `json:"citations"`
	CreatedAt        time.Time             `json:"created_at"`
}

type AnnotatedConcept struct {
	Name            string `json:"name"`
	ExplanationHTML string `json:"explanation_html"`
}

// ExportReportResponse is the canonical JSON document of a stored report,
// markdown untouched.
type ExportReportResponse struct {
	Id           uuid.UUID             `json:"id"`
	Title        string                `json:"title"`
	Subject      string                `json:"subject"`
	Overview     string                `json:"overview"`
	Glossary     []entity.GlossaryTerm `json:"glossary"`
	Concepts     []entity.Concept      `json:"concepts"`
	Formulas     []entity.FormulaStep  `json:"formulas"`
	Applications string                `json:"applications"`
	Summary      string                `json:"summary"`
	Recap        string                `json:"recap"`
	Citations    []entity.Citation     `json:"citations"`
	CreatedAt    time.Time             `json:"created_at"`
}

type RelatedReportItem struct {
	Id         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Similarity float64   `json:"similarity"`
}

package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type GlossaryTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type Concept struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

type FormulaStep struct {
	Expression  string `json:"expression"`
	Explanation string `json:"explanation"`
}

type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Report is a generated chapter report. Markdown fields (overview, concept
// explanations, applications, summary) go through the term annotator before
// they reach the client; recap is plain text for narration.
type Report struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Subject      string // the chapter name or document the student submitted
	Title        string
	Overview     string
	Glossary     []GlossaryTerm
	Concepts     []Concept
	Formulas     []FormulaStep
	Applications string
	Summary      string
	Recap        string
	Citations    []Citation
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// GroundingText flattens the report into the context a tutor session is
// seeded with, so follow-up answers reference this specific report.
func (r *Report) GroundingText() string {
	var sb strings.Builder
	sb.WriteString("Title: " + r.Title + "\n\n")
	sb.WriteString("Overview:\n" + r.Overview + "\n\n")

	if len(r.Glossary) > 0 {
		sb.WriteString("Key Terms:\n")
		for _, t := range r.Glossary {
			sb.WriteString("- " + t.Term + ": " + t.Definition + "\n")
		}
		sb.WriteString("\n")
	}
	if len(r.Concepts) > 0 {
		sb.WriteString("Concepts:\n")
		for _, c := range r.Concepts {
			sb.WriteString("## " + c.Name + "\n" + c.Explanation + "\n")
		}
		sb.WriteString("\n")
	}
	if len(r.Formulas) > 0 {
		sb.WriteString("Formulas:\n")
		for _, f := range r.Formulas {
			sb.WriteString("- " + f.Expression + ": " + f.Explanation + "\n")
		}
		sb.WriteString("\n")
	}
	if r.Applications != "" {
		sb.WriteString("Applications:\n" + r.Applications + "\n\n")
	}
	sb.WriteString("Summary:\n" + r.Summary + "\n")
	return sb.String()
}

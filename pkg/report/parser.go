package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-studymate-be/internal/entity"
)

// ParsedReport is the model's JSON output after validation. Field names match
// the generation prompt schema.
type ParsedReport struct {
	Title        string                `json:"title"`
	Overview     string                `json:"overview"`
	Glossary     []entity.GlossaryTerm `json:"glossary"`
	Concepts     []entity.Concept      `json:"concepts"`
	Formulas     []entity.FormulaStep  `json:"formulas"`
	Applications string                `json:"applications"`
	Summary      string                `json:"summary"`
	Recap        string                `json:"recap"`
	Citations    []entity.Citation     `json:"citations"`
}

// Parse decodes a raw model response into a validated report. Models sometimes
// wrap the JSON in markdown code fences despite instructions, so fences are
// stripped first.
func Parse(raw string) (*ParsedReport, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var parsed ParsedReport
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse report JSON: %w", err)
	}

	if strings.TrimSpace(parsed.Title) == "" {
		return nil, fmt.Errorf("report is missing a title")
	}
	if strings.TrimSpace(parsed.Overview) == "" && strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("report has neither overview nor summary")
	}

	parsed.Glossary = cleanGlossary(parsed.Glossary)
	parsed.Citations = cleanCitations(parsed.Citations)

	return &parsed, nil
}

// StripCodeFences removes a surrounding ```json ... ``` (or plain ```) block.
func StripCodeFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// cleanGlossary drops entries with blank terms or definitions and dedupes
// terms case-insensitively, keeping the first occurrence.
func cleanGlossary(terms []entity.GlossaryTerm) []entity.GlossaryTerm {
	seen := make(map[string]bool, len(terms))
	out := make([]entity.GlossaryTerm, 0, len(terms))
	for _, t := range terms {
		term := strings.TrimSpace(t.Term)
		def := strings.TrimSpace(t.Definition)
		if term == "" || def == "" {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entity.GlossaryTerm{Term: term, Definition: def})
	}
	return out
}

func cleanCitations(citations []entity.Citation) []entity.Citation {
	out := make([]entity.Citation, 0, len(citations))
	for _, c := range citations {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

package report

import (
	"strings"
	"testing"
)

const sampleJSON = `{
	"title": "Photosynthesis",
	"overview": "Plants convert light into chemical energy.",
	"glossary": [
		{"term": "Chlorophyll", "definition": "Green pigment"},
		{"term": "chlorophyll", "definition": "duplicate, different case"},
		{"term": "  ", "definition": "blank term"},
		{"term": "Stoma", "definition": ""}
	],
	"concepts": [{"name": "Light reactions", "explanation": "..."}],
	"formulas": [{"expression": "6CO2 + 6H2O -> C6H12O6 + 6O2", "explanation": "overall equation"}],
	"applications": "Agriculture.",
	"summary": "Photosynthesis sustains most life.",
	"recap": "Plants make sugar from light.",
	"citations": [{"title": "Biology 101", "url": "https://example.com"}, {"title": "", "url": "https://x"}]
}`

func TestParsePlainJSON(t *testing.T) {
	parsed, err := Parse(sampleJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Title != "Photosynthesis" {
		t.Errorf("title = %q", parsed.Title)
	}
	if len(parsed.Glossary) != 1 {
		t.Fatalf("expected 1 glossary term after cleaning, got %d", len(parsed.Glossary))
	}
	if parsed.Glossary[0].Term != "Chlorophyll" {
		t.Errorf("expected first occurrence kept, got %q", parsed.Glossary[0].Term)
	}
	if len(parsed.Citations) != 1 {
		t.Errorf("expected untitled citation dropped, got %d", len(parsed.Citations))
	}
}

func TestParseStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + sampleJSON + "\n```"
	parsed, err := Parse(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Title != "Photosynthesis" {
		t.Errorf("title = %q", parsed.Title)
	}

	bare := "```\n" + sampleJSON + "\n```"
	if _, err := Parse(bare); err != nil {
		t.Fatalf("bare fence: %v", err)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"not json", "the model apologizes instead of answering"},
		{"missing title", `{"overview": "x", "summary": "y"}`},
		{"no content", `{"title": "t"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStripCodeFencesLeavesPlainText(t *testing.T) {
	in := "  {\"a\": 1}  "
	if got := StripCodeFences(in); got != strings.TrimSpace(in) {
		t.Errorf("got %q", got)
	}
}

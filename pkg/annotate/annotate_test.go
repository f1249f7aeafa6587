package annotate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func render(t *testing.T, markdown string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		t.Fatalf("goldmark.Convert failed: %v", err)
	}
	return buf.String()
}

// visibleText parses markup and concatenates all text content.
func visibleText(t *testing.T, markup string) string {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}

func countTooltips(markup string) int {
	return strings.Count(markup, `class="term-tooltip"`)
}

func TestAnnotateEmptyGlossaryIsIdentity(t *testing.T) {
	markdown := "# Heading\n\nSome **bold** text with a [link](https://example.com).\n"

	got, err := Annotate(markdown, NewGlossary(nil))
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if want := render(t, markdown); got != want {
		t.Errorf("Annotate with empty glossary = %q, want %q", got, want)
	}
}

func TestAnnotateWrapsMatches(t *testing.T) {
	tests := []struct {
		name         string
		markdown     string
		glossary     []Term
		wantTooltips int
		wantContains []string
		notContains  []string
	}{
		{
			name:         "whole word only",
			markdown:     "Reaction to the Act",
			glossary:     []Term{{Term: "Act", Definition: "a law"}},
			wantTooltips: 1,
			wantContains: []string{`data-term="Act"`, ">Act</span>"},
		},
		{
			name:     "longest term wins",
			markdown: "The Second Law states the rule.",
			glossary: []Term{
				{Term: "Law", Definition: "short"},
				{Term: "Second Law", Definition: "long"},
			},
			wantTooltips: 1,
			wantContains: []string{`data-term="Second Law"`},
			notContains:  []string{`data-term="Law"`},
		},
		{
			name:         "case insensitive match keeps surface casing",
			markdown:     "DNA replication",
			glossary:     []Term{{Term: "dna", Definition: "genetic material"}},
			wantTooltips: 1,
			wantContains: []string{`data-term="dna"`, ">DNA</span>"},
		},
		{
			name:         "repeated term wrapped each time",
			markdown:     "The law of the law",
			glossary:     []Term{{Term: "law", Definition: "rule"}},
			wantTooltips: 2,
		},
		{
			name:         "match inside nested structure",
			markdown:     "- outer inertia\n  - nested inertia\n",
			glossary:     []Term{{Term: "inertia", Definition: "resistance to change"}},
			wantTooltips: 2,
		},
		{
			name:         "empty term entries are skipped",
			markdown:     "Plain text stays plain.",
			glossary:     []Term{{Term: "", Definition: "nothing"}, {Term: "   ", Definition: "blank"}},
			wantTooltips: 0,
		},
		{
			name:         "term with regex special characters",
			markdown:     "Compute 2+2 somewhere",
			glossary:     []Term{{Term: "2+2", Definition: "four"}, {Term: "Compute", Definition: "calc"}},
			wantTooltips: 2,
			wantContains: []string{`data-term="Compute"`, `data-term="2+2"`},
		},
		{
			name:         "definition rides along as attribute",
			markdown:     "Study inertia today",
			glossary:     []Term{{Term: "inertia", Definition: "resistance to change"}},
			wantTooltips: 1,
			wantContains: []string{`data-def="resistance to change"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Annotate(tt.markdown, NewGlossary(tt.glossary))
			if err != nil {
				t.Fatalf("Annotate failed: %v", err)
			}

			if n := countTooltips(got); n != tt.wantTooltips {
				t.Errorf("tooltip count = %d, want %d\noutput: %s", n, tt.wantTooltips, got)
			}
			for _, s := range tt.wantContains {
				if !strings.Contains(got, s) {
					t.Errorf("output missing %q\noutput: %s", s, got)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(got, s) {
					t.Errorf("output should not contain %q\noutput: %s", s, got)
				}
			}
		})
	}
}

func TestAnnotatePreservesVisibleText(t *testing.T) {
	markdowns := []string{
		"# Newton\n\nThe Second Law states that force equals mass times acceleration.\n",
		"Lists:\n\n1. inertia\n2. momentum and inertia\n",
		"Text with `code inertia` and *emphasis on inertia*.\n",
	}
	glossary := NewGlossary([]Term{
		{Term: "inertia", Definition: "resistance"},
		{Term: "Second Law", Definition: "F = ma"},
		{Term: "momentum", Definition: "mass times velocity"},
	})

	for _, md := range markdowns {
		annotated, err := Annotate(md, glossary)
		if err != nil {
			t.Fatalf("Annotate failed: %v", err)
		}
		plain := render(t, md)
		if got, want := visibleText(t, annotated), visibleText(t, plain); got != want {
			t.Errorf("visible text changed\n got: %q\nwant: %q", got, want)
		}
	}
}

func TestAnnotateLeavesAttributesAlone(t *testing.T) {
	markdown := "[inertia](https://example.com/inertia) explains inertia"
	glossary := NewGlossary([]Term{{Term: "inertia", Definition: "resistance"}})

	got, err := Annotate(markdown, glossary)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if !strings.Contains(got, `href="https://example.com/inertia"`) {
		t.Errorf("href was rewritten: %s", got)
	}
	// Link text and trailing text are both eligible.
	if n := countTooltips(got); n != 2 {
		t.Errorf("tooltip count = %d, want 2\noutput: %s", n, got)
	}
}

func TestNewGlossaryOrdering(t *testing.T) {
	g := NewGlossary([]Term{
		{Term: "Law", Definition: "a"},
		{Term: "Newton's Second Law", Definition: "b"},
		{Term: "Act", Definition: "c"},
	})

	terms := g.Terms()
	if len(terms) != 3 {
		t.Fatalf("terms = %d, want 3", len(terms))
	}
	if terms[0].Term != "Newton's Second Law" {
		t.Errorf("longest term should sort first, got %q", terms[0].Term)
	}
	// Length tie keeps insertion order.
	if terms[1].Term != "Law" || terms[2].Term != "Act" {
		t.Errorf("tie order changed: %q, %q", terms[1].Term, terms[2].Term)
	}
}

func TestGlossaryLookupIsCaseInsensitive(t *testing.T) {
	g := NewGlossary([]Term{{Term: "DNA", Definition: "genetic material"}})

	term, ok := g.Lookup("dna")
	if !ok || term.Term != "DNA" {
		t.Errorf("Lookup(dna) = %+v, %v; want canonical DNA entry", term, ok)
	}
	if _, ok := g.Lookup("rna"); ok {
		t.Error("Lookup(rna) should miss")
	}
}

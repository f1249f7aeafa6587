package annotate

import (
	"regexp"
	"sort"
	"strings"
)

// Term is a single glossary entry attached to a generated report.
type Term struct {
	Term       string
	Definition string
}

// Glossary holds the report's term/definition pairs prepared for matching.
// Terms are ordered longest-first so a longer term is always tried before any
// term that is a substring of it ("Newton's Second Law" before "Law"). Ties
// keep their original insertion order.
type Glossary struct {
	terms   []Term
	byKey   map[string]Term
	pattern *regexp.Regexp
}

// NewGlossary builds a matchable glossary. Entries with empty term text are
// skipped (an empty alternative would match everywhere). When two entries
// collide case-insensitively, the first one after sorting wins.
func NewGlossary(terms []Term) Glossary {
	valid := make([]Term, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t.Term) == "" {
			continue
		}
		valid = append(valid, t)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return len(valid[i].Term) > len(valid[j].Term)
	})

	g := Glossary{
		terms: valid,
		byKey: make(map[string]Term, len(valid)),
	}

	alternatives := make([]string, 0, len(valid))
	for _, t := range valid {
		key := strings.ToLower(t.Term)
		if _, exists := g.byKey[key]; exists {
			continue
		}
		g.byKey[key] = t
		alternatives = append(alternatives, regexp.QuoteMeta(t.Term))
	}

	if len(alternatives) == 0 {
		return g
	}

	// Longer alternatives come first, so Go's leftmost-first alternation
	// gives longest-match priority. QuoteMeta keeps special characters in
	// term text literal.
	pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
	if err != nil {
		// A quoted alternation should always compile; degrade to no matching.
		return Glossary{terms: valid, byKey: g.byKey}
	}
	g.pattern = pattern
	return g
}

// Empty reports whether the glossary has no matchable terms.
func (g Glossary) Empty() bool {
	return g.pattern == nil
}

// Lookup resolves a matched surface string to its canonical glossary entry.
func (g Glossary) Lookup(surface string) (Term, bool) {
	t, ok := g.byKey[strings.ToLower(surface)]
	return t, ok
}

// Terms returns the prepared entries in matching-priority order.
func (g Glossary) Terms() []Term {
	return g.terms
}

package searcher

import (
	"regexp"
	"sort"
	"strings"
)

// termPatterns find statute references worth matching verbatim: article
// references ("Art. 5", "artigo 12") and law numbers ("Lei 8112",
// "Lei Complementar 123")
var termPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)art\.?\s*\d+|artigo\s*\d+`),
	regexp.MustCompile(`(?i)lei\s+(complementar\s+)?\d+`),
}

// ResolveTerms returns the lexical terms for a query. Explicit terms are used
// as given (trimmed, blanks dropped); otherwise candidates are extracted from
// the query. Duplicates are removed case-insensitively, keeping the first.
func ResolveTerms(query string, explicit []string) []string {
	terms := dedupeTerms(explicit)
	if len(terms) > 0 {
		return terms
	}
	return ExtractTerms(query)
}

// ExtractTerms returns the statute references found in query, in order of appearance
func ExtractTerms(query string) []string {
	type match struct {
		start int
		text  string
	}

	var matches []match
	for _, re := range termPatterns {
		for _, loc := range re.FindAllStringIndex(query, -1) {
			matches = append(matches, match{start: loc[0], text: query[loc[0]:loc[1]]})
		}
	}

	// Order by position so the first mention of a term wins
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.text
	}
	return dedupeTerms(texts)
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, term)
	}
	return out
}

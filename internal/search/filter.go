package search

import (
	"context"
	"strings"

	"github.com/sells-group/prospect-cli/internal/ptext"
)

// defaultExclusions drops aggregator and directory hits that are never the
// company's own site or genuine news coverage.
var defaultExclusions = []string{
	"linkedin.com",
	"facebook.com",
	"instagram.com",
	"reclameaqui.com",
	"econodata.com",
	"cnpj.biz",
	"empresascnpj.com",
	"solutudo.com",
	"apontador.com",
	"telelistas.net",
}

// Relevant reports whether a result plausibly refers to the queried company:
// it must share at least min(2, len(queryWords)) significant words with the
// query, and must not match any exclusion term.
func Relevant(r Result, query string, exclusions []string) bool {
	combined := ptext.Fold(r.URL + " " + r.Title + " " + r.Snippet)
	for _, term := range exclusions {
		if strings.Contains(combined, ptext.Fold(term)) {
			return false
		}
	}

	words := ptext.SignificantWords(query)
	if len(words) == 0 {
		return false
	}
	needed := 2
	if len(words) < needed {
		needed = len(words)
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(combined, w) {
			matched++
			if matched >= needed {
				return true
			}
		}
	}
	return false
}

// FilterRelevant keeps only results passing Relevant, preserving order.
func FilterRelevant(results []Result, query string, exclusions []string) []Result {
	var kept []Result
	for _, r := range results {
		if Relevant(r, query, exclusions) {
			kept = append(kept, r)
		}
	}
	return kept
}

// FindOfficialWebsite looks up the company's own site. Returns nil when no
// relevant result survives the filter.
func (r *Resilient) FindOfficialWebsite(ctx context.Context, companyName, city string) (*Result, error) {
	query := companyName + " " + city + " site oficial"
	resp, err := r.Search(ctx, query, 10)
	if err != nil {
		return nil, err
	}

	relevant := FilterRelevant(resp.Results, companyName+" "+city, defaultExclusions)
	if len(relevant) == 0 {
		return nil, nil
	}
	return &relevant[0], nil
}

// FindRecentNews looks up recent coverage of the company.
func (r *Resilient) FindRecentNews(ctx context.Context, companyName string, maxResults int) ([]Result, error) {
	query := companyName + " noticias"
	resp, err := r.Search(ctx, query, maxResults*2)
	if err != nil {
		return nil, err
	}

	relevant := FilterRelevant(resp.Results, companyName, defaultExclusions)
	if maxResults > 0 && len(relevant) > maxResults {
		relevant = relevant[:maxResults]
	}
	return relevant, nil
}

package pipeline

import (
	"winamax-scraper/internal/extractor"
	"winamax-scraper/lib/whitelist"
)

// Filter drops records at or below the score threshold, then applies
// the whitelist when one is active. It also reports which whitelist
// entries matched nothing in the raw candidate set, so operators can
// spot renamed or misspelled entries without failing the run.
func Filter(records []extractor.Record, minPoints float64, wl whitelist.Whitelist) (kept []extractor.Record, missing []whitelist.MissingEntry) {
	if wl.Active() {
		names := make([]string, 0, len(records))
		for _, r := range records {
			names = append(names, r.Name)
		}
		missing = wl.Missing(names)
	}

	for _, r := range records {
		if r.Points <= minPoints {
			continue
		}
		if wl.Active() && !wl.Matches(r.Name) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, missing
}

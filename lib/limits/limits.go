// Package limits describes the pollable Expresso leaderboard partitions.
// Which partitions are enabled comes from a precedence-ordered provider
// chain: a mutable limits.txt file (editable without a restart) wins over
// the ACTIVE_LIMITS configuration default.
package limits

import (
	"fmt"
	"strings"
)

// Limit is one leaderboard partition (a stake tier) on the source site.
type Limit struct {
	ID          string
	Name        string
	URL         string
	Description string
}

const baseURL = "https://www.winamax.fr/en/challenges/expresso"

// table order is the canonical display order used by the history API.
var table = []Limit{
	{ID: "0.25", Name: "0.25€", Description: "micro stakes 25c"},
	{ID: "0.5", Name: "0.50€", Description: "micro stakes 50c"},
	{ID: "1-1.5", Name: "1-1.5€", Description: "low stakes 1-1.5€"},
	{ID: "2-3", Name: "2-3€", Description: "low stakes 2-3€"},
	{ID: "4-7", Name: "4-7€", Description: "mid stakes 4-7€"},
	{ID: "8-15", Name: "8-15€", Description: "mid stakes 8-15€"},
	{ID: "16-25", Name: "16-25€", Description: "high stakes 16-25€"},
	{ID: "50", Name: "50€", Description: "high stakes 50€"},
	{ID: "100", Name: "100€", Description: "premium stakes 100€"},
	{ID: "250", Name: "250€", Description: "premium stakes 250€"},
	{ID: "500", Name: "500€", Description: "top stakes 500€"},
}

var byID = func() map[string]Limit {
	m := make(map[string]Limit, len(table))
	for i, l := range table {
		l.URL = fmt.Sprintf("%s/%s/", baseURL, l.ID)
		table[i] = l
		m[l.ID] = l
	}
	return m
}()

// All returns every known limit in canonical order.
func All() []Limit {
	out := make([]Limit, len(table))
	copy(out, table)
	return out
}

// AllIDs returns every known limit id in canonical order.
func AllIDs() []string {
	ids := make([]string, len(table))
	for i, l := range table {
		ids[i] = l.ID
	}
	return ids
}

// Get returns the limit for id, if known.
func Get(id string) (Limit, bool) {
	l, ok := byID[id]
	return l, ok
}

// ParseIDs splits a comma-separated id list ("16-25,50,100") into
// trimmed, non-empty entries.
func ParseIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package whitelist narrows scraping to a tracked set of player names.
// Matching is deliberately loose: the source renderer truncates long
// names, so an entry matches a candidate when either string contains the
// other, case-insensitively.
package whitelist

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
)

type Whitelist struct {
	entries []string
}

// Load reads one player name per line; blank lines and '#' comments are
// ignored. A missing or empty file yields an inactive whitelist, which
// means "collect everyone".
func Load(path string) Whitelist {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Whitelist{}
	}
	if err != nil {
		slog.Warn("could not read whitelist, collecting all players", "path", path, "err", err)
		return Whitelist{}
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error while reading whitelist", "path", path, "err", err)
	}
	return Whitelist{entries: entries}
}

func FromEntries(entries ...string) Whitelist {
	return Whitelist{entries: entries}
}

// Active reports whether any names are tracked. An inactive whitelist
// matches everyone.
func (w Whitelist) Active() bool {
	return len(w.entries) > 0
}

func (w Whitelist) Entries() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

func looseMatch(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Matches reports whether name matches any tracked entry. First match
// wins; when entries overlap (one a substring of another) the earlier
// entry is the one that counts.
func (w Whitelist) Matches(name string) bool {
	if !w.Active() {
		return true
	}
	for _, entry := range w.entries {
		if looseMatch(name, entry) {
			return true
		}
	}
	return false
}

// MissingEntry is a tracked name that matched nothing in a candidate set.
type MissingEntry struct {
	Entry string
	// Closest is the candidate name with the smallest edit distance,
	// surfaced so an operator can spot renames. Empty when there were no
	// candidates at all.
	Closest string
}

// Missing returns the tracked entries with zero matches among the given
// candidate names. Purely observational: a missing entry is reported,
// never an error.
func (w Whitelist) Missing(candidates []string) []MissingEntry {
	if !w.Active() {
		return nil
	}

	var missing []MissingEntry
	for _, entry := range w.entries {
		found := false
		for _, name := range candidates {
			if looseMatch(name, entry) {
				found = true
				break
			}
		}
		if found {
			continue
		}

		closest := ""
		best := -1
		for _, name := range candidates {
			d := matchr.Levenshtein(strings.ToLower(entry), strings.ToLower(name))
			if best < 0 || d < best {
				best = d
				closest = name
			}
		}
		missing = append(missing, MissingEntry{Entry: entry, Closest: closest})
	}
	return missing
}

package limits

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// Provider yields a candidate enabled-limit id list. A provider returning
// ok=false (or an empty list) passes the decision to the next one in the
// chain.
type Provider interface {
	IDs() ([]string, bool)
	Source() string
}

// FileProvider reads limit ids from a mutable text file, one id per line,
// '#' starts a comment. An absent or empty file defers to the next
// provider; the file is re-read on every call so operators can edit it
// while the scraper is running.
type FileProvider struct {
	Path string
}

func (p FileProvider) Source() string { return p.Path }

func (p FileProvider) IDs() ([]string, bool) {
	f, err := os.Open(p.Path)
	if os.IsNotExist(err) {
		return nil, false
	}
	if err != nil {
		slog.Warn("could not read limits file", "path", p.Path, "err", err)
		return nil, false
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error while reading limits file", "path", p.Path, "err", err)
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// StaticProvider wraps a fixed id list, usually the ACTIVE_LIMITS
// configuration default.
type StaticProvider struct {
	Name string
	List []string
}

func (p StaticProvider) Source() string { return p.Name }

func (p StaticProvider) IDs() ([]string, bool) {
	if len(p.List) == 0 {
		return nil, false
	}
	return p.List, true
}

// Registry resolves the enabled limit set through its provider chain.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Enabled returns the enabled limits in canonical order. Unknown ids are
// skipped with a warning, never fatal: one typo in limits.txt must not
// take the whole poll down.
func (r *Registry) Enabled() []Limit {
	for _, p := range r.providers {
		ids, ok := p.IDs()
		if !ok {
			continue
		}

		enabled := make(map[string]bool, len(ids))
		for _, id := range ids {
			if _, known := Get(id); !known {
				slog.Warn("ignoring unknown limit id", "id", id, "source", p.Source())
				continue
			}
			enabled[id] = true
		}
		if len(enabled) == 0 {
			// every entry was malformed, fall through to the next provider
			continue
		}

		var out []Limit
		for _, l := range All() {
			if enabled[l.ID] {
				out = append(out, l)
			}
		}
		slog.Info("resolved enabled limits", "source", p.Source(), "count", len(out))
		return out
	}
	return nil
}

// Package extractor turns a leaderboard page into raw candidate records.
// The pipeline treats it as a capability: given a source address, yield
// {rank, name, points, guarantee} rows, nothing more.
package extractor

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Record is one raw leaderboard row as rendered by the source.
type Record struct {
	Rank      int
	Name      string
	Points    float64
	Guarantee string // empty when the source shows "-"
}

// Extractor yields the raw candidate records behind a source address.
type Extractor interface {
	Extract(ctx context.Context, url string) ([]Record, error)
}

// Selectors for the rendered leaderboard table. The site ships obfuscated
// styled-component class names; these are the stable ones as of the
// current markup and live here in one place for when they rotate.
const (
	tableSelector = ".sc-khIgEk.hQhHpX"
	rowSelector   = ".sc-khIgEk.hQhHpX .sc-cOifOu, .sc-khIgEk.hQhHpX .sc-jcwpoC"
	rankSelector  = `.sc-ciSkZP[color="#ffc514"], .sc-ciSkZP[color="#a1a4b8"]`
	nameSelector  = ".sc-ciSkZP.kqvvUj"
	cellSelector  = ".sc-ciSkZP.JmAaU"
)

// ParseLeaderboard extracts records from rendered leaderboard HTML.
// Rows that don't parse are skipped, not fatal: the table routinely
// contains header and spacer rows.
func ParseLeaderboard(html string) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []Record
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		rec, ok := parseRow(row)
		if !ok {
			return
		}
		records = append(records, rec)
	})
	return records, nil
}

func parseRow(row *goquery.Selection) (Record, bool) {
	rankText := strings.TrimSpace(row.Find(rankSelector).First().Text())
	name := strings.TrimSpace(row.Find(nameSelector).First().Text())
	cells := row.Find(cellSelector)
	if rankText == "" || name == "" || cells.Length() < 2 {
		return Record{}, false
	}

	rank, err := strconv.Atoi(rankText)
	if err != nil || rank < 1 {
		slog.Debug("skipping leaderboard row with bad rank", "rank", rankText, "name", name)
		return Record{}, false
	}
	points, err := strconv.ParseFloat(strings.TrimSpace(cells.Eq(0).Text()), 64)
	if err != nil {
		slog.Debug("skipping leaderboard row with bad points", "name", name)
		return Record{}, false
	}

	guarantee := strings.TrimSpace(cells.Eq(1).Text())
	if guarantee == "-" {
		guarantee = ""
	}

	return Record{
		Rank:      rank,
		Name:      name,
		Points:    points,
		Guarantee: guarantee,
	}, true
}

package portlib

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
)

// DefaultTag is assigned to every ticker without an explicit strategy tag.
const DefaultTag = "unclassified"

// tagsHeader is the on-disk shape of tags.csv.
var tagsHeader = []string{"Ticker", "Tag"}

// PositionTags maps tickers to strategy tags, persisted per account in
// tags.csv. Tags feed the tag filters of market value and PnL computations.
type PositionTags struct {
	file csvFile
	tags map[string]string
}

// NewPositionTags returns the tag set stored under dir.
func NewPositionTags(dir string) *PositionTags {
	return &PositionTags{
		file: csvFile{path: filepath.Join(dir, "tags.csv"), header: tagsHeader},
		tags: make(map[string]string),
	}
}

// Load reads the stored tags and makes sure every given ticker has one,
// assigning the default tag to newcomers and persisting the result.
func (p *PositionTags) Load(tickers []string) error {
	records, err := p.file.readAll()
	if err != nil {
		return err
	}
	p.tags = make(map[string]string, len(records))
	for _, rec := range records {
		p.tags[rec[0]] = rec[1]
	}
	added := false
	for _, ticker := range tickers {
		if _, ok := p.tags[ticker]; !ok {
			p.tags[ticker] = DefaultTag
			added = true
		}
	}
	if added {
		return p.save()
	}
	return nil
}

// Get returns the tag of a ticker, defaulting to the unclassified tag.
func (p *PositionTags) Get(ticker string) string {
	if tag, ok := p.tags[ticker]; ok {
		return tag
	}
	return DefaultTag
}

// Set assigns a tag to a ticker and persists the change.
func (p *PositionTags) Set(ticker, tag string) error {
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if tag == "" {
		tag = DefaultTag
	}
	p.tags[ticker] = tag
	return p.save()
}

// Tags returns the sorted set of distinct tags in use.
func (p *PositionTags) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range p.tags {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// Reset drops every stored tag.
func (p *PositionTags) Reset() error {
	p.tags = make(map[string]string)
	return p.file.writeAll(nil)
}

func (p *PositionTags) save() error {
	rows := make([][]string, 0, len(p.tags))
	for _, ticker := range slices.Sorted(maps.Keys(p.tags)) {
		rows = append(rows, []string{ticker, p.tags[ticker]})
	}
	return p.file.writeAll(rows)
}

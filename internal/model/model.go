package model

import (
	"html/template"
)

// TypePage marks an item that lives directly in the content directory.
const TypePage = "page"

// ContentItem is a single loaded entry: a collection document, a data record
// or a standalone page.
type ContentItem struct {
	Title       string
	Description string
	Order       *float64 // nil when the entry does not set one
	Type        string   // TypePage, or the collection's entry type
	Collection  string   // empty for standalone pages
	Slug        string
	SourcePath  string
	Permalink   string
	Layout      string
	Body        []byte
	ContentHTML template.HTML
	// Data holds the validated front matter, or the whole record for data
	// entries, including keys the schema does not declare.
	Data map[string]any
}

// HasPage reports whether the item is rendered to its own HTML page. Data
// entries are only reachable through their collection.
func (c *ContentItem) HasPage() bool {
	return c.Permalink != ""
}

// SiteData holds all site-wide data, including configuration and content.
type SiteData struct {
	Title       string
	BaseURL     string
	Params      map[string]any
	Pages       []*ContentItem
	Collections map[string][]*ContentItem
}

// Collection returns the entries of the named collection. Templates call it
// as {{ .Site.Collection "docs" }}.
func (s *SiteData) Collection(name string) []*ContentItem {
	return s.Collections[name]
}

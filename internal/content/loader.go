// Package content walks the content directory, assigns every file to its
// collection and validates it against the collection registry.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"go.uber.org/multierr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/Bitlatte/shitdocs/internal/collection"
	"github.com/Bitlatte/shitdocs/internal/ctxlog"
	"github.com/Bitlatte/shitdocs/internal/model"
)

// Loader reads every entry below Dir. Files directly in Dir are standalone
// pages; files in Dir/<name>/ belong to collection <name>.
type Loader struct {
	Dir      string
	Registry *collection.Registry
}

// Load returns every entry that loaded successfully. Document level problems
// (unknown collection, schema violations) do not stop the walk; they are
// combined into the returned error so a single run reports all of them.
// Use multierr.Errors to inspect them individually. I/O failures abort the
// walk and are returned alone.
func (l *Loader) Load(ctx context.Context) ([]*model.ContentItem, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(l.Dir); err != nil {
		return nil, fmt.Errorf("content directory '%s' not found: %w", l.Dir, err)
	}

	var (
		items   []*model.ContentItem
		docErrs error
	)
	walkErr := filepath.WalkDir(l.Dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("error accessing path '%s' during walk: %w", p, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == l.Dir {
			return nil
		}
		if ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(l.Dir, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", p, err)
		}
		parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)

		if len(parts) == 1 {
			if !isMarkdown(p) {
				logger.Debug("Skipping non-markdown file", "path", p)
				return nil
			}
			item, docErr, err := l.loadPage(p, rel)
			if err != nil {
				return err
			}
			if docErr != nil {
				docErrs = multierr.Append(docErrs, docErr)
				return nil
			}
			items = append(items, item)
			return nil
		}

		name, inner := parts[0], parts[1]
		def, ok := l.Registry.Lookup(name)
		if !ok {
			if isMarkdown(p) || isData(p) {
				docErrs = multierr.Append(docErrs, &collection.UnknownCollectionError{Collection: name, Document: p})
			}
			return nil
		}

		var (
			item   *model.ContentItem
			docErr error
		)
		switch def.Type {
		case collection.EntryTypeContent:
			if !isMarkdown(p) {
				logger.Warn("Skipping file that is not markdown in content collection", "collection", name, "path", p)
				return nil
			}
			item, docErr, err = l.loadDocument(def, p, inner)
		case collection.EntryTypeData:
			if !isData(p) {
				logger.Warn("Skipping file that is not YAML, JSON or TOML in data collection", "collection", name, "path", p)
				return nil
			}
			item, docErr, err = l.loadRecord(def, p, inner)
		default:
			return fmt.Errorf("collection %q: unknown entry type %q", name, def.Type)
		}
		if err != nil {
			return err
		}
		if docErr != nil {
			docErrs = multierr.Append(docErrs, docErr)
			return nil
		}

		logger.Debug("Loaded entry", "collection", name, "slug", item.Slug, "path", p)
		items = append(items, item)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error during content collection walk: %w", walkErr)
	}

	items, clashes := l.claimPermalinks(items)
	return items, multierr.Append(docErrs, clashes)
}

// claimPermalinks keeps the first entry for every permalink and reports the
// rest. Collection index pages are reserved up front. Permalinks are compared
// case-insensitively since the output may land on a case-insensitive
// filesystem.
func (l *Loader) claimPermalinks(items []*model.ContentItem) ([]*model.ContentItem, error) {
	owners := make(map[string]string, len(items))
	for _, name := range l.Registry.Names() {
		owners["/"+strings.ToLower(name)+"/"] = fmt.Sprintf("the %q collection index", name)
	}

	var errs error
	kept := items[:0]
	for _, item := range items {
		if !item.HasPage() {
			kept = append(kept, item)
			continue
		}
		key := strings.ToLower(item.Permalink)
		if owner, taken := owners[key]; taken {
			errs = multierr.Append(errs, &DuplicatePermalinkError{
				Permalink: item.Permalink,
				Document:  item.SourcePath,
				Owner:     owner,
			})
			continue
		}
		owners[key] = item.SourcePath
		kept = append(kept, item)
	}
	return kept, errs
}

// loadDocument parses a markdown entry. docErr carries schema problems, err
// carries I/O failures.
func (l *Loader) loadDocument(def collection.Definition, p, inner string) (item *model.ContentItem, docErr, err error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file '%s': %w", p, err)
	}

	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed front matter: %w", p, err), nil
	}

	values, docErr := l.Registry.Validate(def.Name, p, fm)
	if docErr != nil {
		return nil, docErr, nil
	}

	slug, docErr := slugFor(def.Name, p, inner, values)
	if docErr != nil {
		return nil, docErr, nil
	}
	item = newItem(values)
	item.Type = string(def.Type)
	item.Collection = def.Name
	item.Slug = slug
	item.SourcePath = p
	item.Permalink = "/" + def.Name + "/" + slug + "/"
	item.Body = body
	return item, nil, nil
}

func (l *Loader) loadRecord(def collection.Definition, p, inner string) (item *model.ContentItem, docErr, err error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file '%s': %w", p, err)
	}

	record, err := decodeRecord(p, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed data entry: %w", p, err), nil
	}

	values, docErr := l.Registry.Validate(def.Name, p, record)
	if docErr != nil {
		return nil, docErr, nil
	}

	slug, docErr := slugFor(def.Name, p, inner, values)
	if docErr != nil {
		return nil, docErr, nil
	}
	item = newItem(values)
	item.Type = string(def.Type)
	item.Collection = def.Name
	item.Slug = slug
	item.SourcePath = p
	return item, nil, nil
}

// loadPage reads a standalone page. Pages are not part of any collection, so
// their front matter is not validated and the title falls back to the file
// name.
func (l *Loader) loadPage(p, rel string) (item *model.ContentItem, docErr, err error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file '%s': %w", p, err)
	}

	fm := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed front matter: %w", p, err), nil
	}

	values := collection.Values(fm)
	slug, docErr := slugFor("", p, rel, values)
	if docErr != nil {
		return nil, docErr, nil
	}
	item = newItem(values)
	if item.Title == "" {
		base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		title := strings.ReplaceAll(strings.ReplaceAll(base, "-", " "), "_", " ")
		item.Title = cases.Title(language.English).String(title)
	}
	item.Type = model.TypePage
	item.Slug = slug
	item.SourcePath = p
	item.Permalink = "/" + slug + "/"
	item.Body = body
	return item, nil, nil
}

func newItem(values collection.Values) *model.ContentItem {
	item := &model.ContentItem{
		Title:       values.String("title"),
		Description: values.String("description"),
		Layout:      values.String("layout"),
		Data:        values,
	}
	if n, ok := values.Number("order"); ok {
		item.Order = &n
	}
	return item
}

func decodeRecord(p string, raw []byte) (map[string]any, error) {
	record := map[string]any{}
	var err error
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &record)
	case ".json":
		err = json.Unmarshal(raw, &record)
	case ".toml":
		err = toml.Unmarshal(raw, &record)
	default:
		err = fmt.Errorf("unsupported data file extension %q", filepath.Ext(p))
	}
	return record, err
}

// slugFor derives an entry's slug from its path inside the collection. A
// non-empty "slug" key in the front matter wins as long as it is a relative
// path that stays below the collection.
func slugFor(coll, document, inner string, values collection.Values) (string, error) {
	override := values.String("slug")
	if override == "" {
		inner = filepath.ToSlash(inner)
		s := strings.TrimSuffix(inner, path.Ext(inner))
		return strings.ToLower(strings.ReplaceAll(s, " ", "-")), nil
	}

	invalid := func(reason string) error {
		return &collection.SchemaValidationError{Collection: coll, Document: document, Field: "slug", Reason: reason}
	}
	if strings.HasPrefix(override, "/") || strings.Contains(override, `\`) || filepath.VolumeName(override) != "" {
		return "", invalid("must be a relative path using forward slashes")
	}
	s := path.Clean(override)
	if s == "." || s == ".." || strings.HasPrefix(s, "../") {
		return "", invalid("must not point outside its directory")
	}
	return s, nil
}

func ignored(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func isMarkdown(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isData(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

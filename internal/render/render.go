// Package render turns markdown bodies into HTML and executes layouts.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/Bitlatte/shitdocs/internal/ctxlog"
	"github.com/Bitlatte/shitdocs/internal/model"
)

const (
	BaseLayout   = "base.html"
	HomeLayout   = "home.html"
	SingleLayout = "single.html"
)

// ListLayout is the optional layout for a collection's index page.
func ListLayout(collection string) string {
	return "list-" + collection + ".html"
}

type Renderer struct {
	md        goldmark.Markdown
	templates *template.Template
}

// NewMarkdown returns the markdown converter used for every entry body.
func NewMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)
}

// New parses every .html file under layoutsDir. base.html (which must sit
// directly in layoutsDir) and partials/ are parsed first so other layouts can
// override their blocks; home.html is parsed last.
func New(layoutsDir string) (*Renderer, error) {
	var layoutFiles []string
	err := filepath.WalkDir(layoutsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			layoutFiles = append(layoutFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find layout files in '%s': %w", layoutsDir, err)
	}

	set := classifyLayouts(layoutsDir, layoutFiles)
	if set.base == "" {
		return nil, fmt.Errorf("%s not found directly in layouts directory '%s'", BaseLayout, layoutsDir)
	}

	templates, err := template.ParseFiles(append([]string{set.base}, set.partials...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s and partials: %w", BaseLayout, err)
	}
	if len(set.others) > 0 {
		if templates, err = templates.ParseFiles(set.others...); err != nil {
			return nil, fmt.Errorf("failed to parse page layout files: %w", err)
		}
	}
	if set.home != "" {
		if templates, err = templates.ParseFiles(set.home); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", HomeLayout, err)
		}
	}

	return &Renderer{md: NewMarkdown(), templates: templates}, nil
}

// layoutSet groups layout files by parse stage.
type layoutSet struct {
	base     string
	home     string
	partials []string
	others   []string
}

// classifyLayouts sorts files found below layoutsDir into their parse stage.
// Partials are files anywhere below layoutsDir/partials/.
func classifyLayouts(layoutsDir string, files []string) layoutSet {
	var set layoutSet
	root := filepath.Clean(layoutsDir)
	partialsDir := filepath.Join(root, "partials")
	for _, f := range files {
		dir := filepath.Dir(f)
		switch {
		case dir == root && filepath.Base(f) == BaseLayout:
			set.base = f
		case dir == root && filepath.Base(f) == HomeLayout:
			set.home = f
		case isBelow(partialsDir, f):
			set.partials = append(set.partials, f)
		default:
			set.others = append(set.others, f)
		}
	}
	return set
}

func isBelow(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Markdown converts src to HTML.
func (r *Renderer) Markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Has reports whether a layout named name was parsed.
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name) != nil
}

// LayoutFor picks the layout for item: its front matter layout, then
// <collection>.html, then single.html, then base.html.
func (r *Renderer) LayoutFor(ctx context.Context, item *model.ContentItem) string {
	if item.Layout != "" {
		if r.Has(item.Layout) {
			return item.Layout
		}
		ctxlog.FromContext(ctx).Warn("Front matter layout not found, falling back",
			"layout", item.Layout, "path", item.SourcePath)
	}
	if item.Collection != "" && r.Has(item.Collection+".html") {
		return item.Collection + ".html"
	}
	if r.Has(SingleLayout) {
		return SingleLayout
	}
	return BaseLayout
}

// Execute runs the named layout with data.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to execute template '%s': %w", name, err)
	}
	return nil
}

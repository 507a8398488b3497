// Package site runs the build: it validates content against the collection
// registry, renders it through the layouts and writes the output directory.
package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bitlatte/shitdocs/internal/collection"
	"github.com/Bitlatte/shitdocs/internal/config"
	"github.com/Bitlatte/shitdocs/internal/content"
	"github.com/Bitlatte/shitdocs/internal/ctxlog"
	"github.com/Bitlatte/shitdocs/internal/model"
	"github.com/Bitlatte/shitdocs/internal/render"
)

type Builder struct {
	Config   config.Config
	Registry *collection.Registry
}

// pageData is what every page layout receives.
type pageData struct {
	Site       *model.SiteData
	Item       *model.ContentItem
	Collection []*model.ContentItem
}

// Check loads every entry and validates it without writing anything. The
// returned error lists every offending document.
func (b *Builder) Check(ctx context.Context) ([]*model.ContentItem, error) {
	loader := &content.Loader{Dir: b.Config.ContentDir, Registry: b.Registry}
	return loader.Load(ctx)
}

// Build produces the site in Config.OutputDir. Any invalid document fails the
// build before the output directory is touched.
func (b *Builder) Build(ctx context.Context) (*model.SiteData, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := b.Config
	logger.Info("Starting build", "outputDir", cfg.OutputDir, "baseURL", cfg.BaseURL, "siteTitle", cfg.SiteTitle)

	if _, err := os.Stat(cfg.LayoutsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("layouts directory '%s' not found. Please create it and add your .html layout files", cfg.LayoutsDir)
	}

	items, err := b.Check(ctx)
	if err != nil {
		return nil, fmt.Errorf("content validation failed:\n%w", err)
	}

	renderer, err := render.New(cfg.LayoutsDir)
	if err != nil {
		return nil, err
	}
	if !renderer.Has(render.HomeLayout) {
		return nil, fmt.Errorf("homepage layout '%s' not found. Please create it in the layouts directory", render.HomeLayout)
	}

	for _, item := range items {
		if !item.HasPage() {
			continue
		}
		html, err := renderer.Markdown(item.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to convert markdown to HTML for file '%s': %w", item.SourcePath, err)
		}
		item.ContentHTML = html
	}

	pages, collections := content.GroupByCollection(items)
	site := &model.SiteData{
		Title:       cfg.SiteTitle,
		BaseURL:     cfg.BaseURL,
		Params:      cfg.Params,
		Pages:       pages,
		Collections: collections,
	}
	for name, list := range collections {
		logger.Debug("Collected entries", "collection", name, "count", len(list))
	}

	if err := prepareOutputDir(ctx, cfg); err != nil {
		return nil, err
	}

	for _, item := range items {
		if !item.HasPage() {
			continue
		}
		layout := renderer.LayoutFor(ctx, item)
		outputPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(item.Permalink), "index.html")
		data := pageData{Site: site, Item: item, Collection: site.Collection(item.Collection)}
		if err := writePage(renderer, cfg.OutputDir, outputPath, layout, data); err != nil {
			return nil, fmt.Errorf("item '%s': %w", item.SourcePath, err)
		}
		logger.Debug("Generated page", "path", outputPath, "layout", layout)
	}

	homePath := filepath.Join(cfg.OutputDir, "index.html")
	if err := writePage(renderer, cfg.OutputDir, homePath, render.HomeLayout, pageData{Site: site}); err != nil {
		return nil, fmt.Errorf("homepage: %w", err)
	}

	for name, list := range collections {
		layout := render.ListLayout(name)
		if !renderer.Has(layout) {
			logger.Debug("No list layout for collection, skipping index page", "collection", name, "layout", layout)
			continue
		}
		outputPath := filepath.Join(cfg.OutputDir, name, "index.html")
		if err := writePage(renderer, cfg.OutputDir, outputPath, layout, pageData{Site: site, Collection: list}); err != nil {
			return nil, fmt.Errorf("collection '%s' index: %w", name, err)
		}
	}

	logger.Info("Build completed", "pages", len(pages), "collections", len(collections))
	return site, nil
}

func prepareOutputDir(ctx context.Context, cfg config.Config) error {
	logger := ctxlog.FromContext(ctx)

	if err := os.RemoveAll(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to remove output directory '%s': %w", cfg.OutputDir, err)
	}
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", cfg.OutputDir, err)
	}

	if _, err := os.Stat(cfg.StaticDir); os.IsNotExist(err) {
		logger.Debug("Static assets directory not found, skipping copy", "staticDir", cfg.StaticDir)
		return nil
	}
	n, err := copyStatic(ctx, cfg.StaticDir, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to copy static assets: %w", err)
	}
	logger.Debug("Copied static assets", "staticDir", cfg.StaticDir, "files", n)
	return nil
}

// writePage renders layout into outputPath, which must lie inside outputDir.
func writePage(r *render.Renderer, outputDir, outputPath, layout string, data pageData) error {
	rel, err := filepath.Rel(outputDir, outputPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to write '%s' outside the output directory '%s'", outputPath, outputDir)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", filepath.Dir(outputPath), err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", outputPath, err)
	}
	if err := r.Execute(f, layout, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

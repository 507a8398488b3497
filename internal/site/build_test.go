package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/Bitlatte/shitdocs/internal/collection"
	"github.com/Bitlatte/shitdocs/internal/config"
	"github.com/Bitlatte/shitdocs/internal/render"
)

func newProject(t *testing.T, files map[string]string) config.Config {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return config.Config{
		SiteTitle:  "Docs",
		BaseURL:    "https://example.com",
		OutputDir:  filepath.Join(root, "public"),
		ContentDir: filepath.Join(root, "content"),
		LayoutsDir: filepath.Join(root, "layouts"),
		StaticDir:  filepath.Join(root, "static"),
	}
}

var layouts = map[string]string{
	"layouts/base.html":      `<title>{{ .Site.Title }}</title>{{ with .Item }}{{ .ContentHTML }}{{ end }}`,
	"layouts/docs.html":      `<h1>{{ .Item.Title }}</h1><p>{{ .Item.Description }}</p>{{ .Item.ContentHTML }}<nav>{{ range .Collection }}{{ .Slug }};{{ end }}</nav>`,
	"layouts/home.html":      `{{ range .Site.Collection "docs" }}<a href="{{ .Permalink }}">{{ .Title }}</a>{{ end }}`,
	"layouts/list-docs.html": `{{ range .Collection }}{{ .Title }}|{{ end }}`,
}

func withLayouts(files map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(layouts))
	for k, v := range layouts {
		out[k] = v
	}
	for k, v := range files {
		out[k] = v
	}
	return out
}

func readOutput(t *testing.T, cfg config.Config, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestBuild(t *testing.T) {
	t.Parallel()
	cfg := newProject(t, withLayouts(map[string]string{
		"content/docs/intro.md":   "---\ntitle: Intro\ndescription: Getting started\norder: 1\n---\n# Welcome\n",
		"content/docs/install.md": "---\ntitle: Install\ndescription: Setup\norder: 0\n---\nRun it.\n",
		"content/docs/faq.md":     "---\ntitle: FAQ\ndescription: Questions\n---\nAsk.\n",
		"content/about.md":        "About this site.\n",
		"static/css/site.css":     "body{}",
	}))

	b := &Builder{Config: cfg, Registry: collection.Default()}
	site, err := b.Build(context.Background())
	require.NoError(t, err)

	docs := site.Collection("docs")
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"install", "intro", "faq"}, []string{docs[0].Slug, docs[1].Slug, docs[2].Slug})
	require.Len(t, site.Pages, 1)

	intro := readOutput(t, cfg, "docs/intro/index.html")
	assert.Contains(t, intro, "<h1>Intro</h1>")
	assert.Contains(t, intro, "<p>Getting started</p>")
	assert.Contains(t, intro, `<h1 id="welcome">Welcome</h1>`)
	assert.Contains(t, intro, "<nav>install;intro;faq;</nav>")

	about := readOutput(t, cfg, "about/index.html")
	assert.Contains(t, about, "<title>Docs</title>")
	assert.Contains(t, about, "About this site.")

	home := readOutput(t, cfg, "index.html")
	assert.Equal(t, `<a href="/docs/install/">Install</a><a href="/docs/intro/">Intro</a><a href="/docs/faq/">FAQ</a>`, home)

	assert.Equal(t, "Install|Intro|FAQ|", readOutput(t, cfg, "docs/index.html"))
	assert.Equal(t, "body{}", readOutput(t, cfg, "css/site.css"))
}

func TestBuildFailsOnInvalidDocuments(t *testing.T) {
	t.Parallel()
	cfg := newProject(t, withLayouts(map[string]string{
		"content/docs/ok.md":  "---\ntitle: Intro\ndescription: Getting started\n---\n",
		"content/docs/bad.md": "---\ntitle: X\ndescription: Y\norder: first\n---\n",
		"content/blog/x.md":   "---\ntitle: X\n---\n",
	}))
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "keep.txt"), []byte("x"), 0o644))

	_, err := (&Builder{Config: cfg, Registry: collection.Default()}).Build(context.Background())
	require.Error(t, err)

	var sve *collection.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, "order", sve.Field)
	assert.Contains(t, err.Error(), "bad.md")
	assert.Contains(t, err.Error(), `collection "blog" is not defined`)

	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, "keep.txt"))
	assert.NoError(t, statErr, "output directory must be left alone when validation fails")
}

func TestCheck(t *testing.T) {
	t.Parallel()
	cfg := newProject(t, map[string]string{
		"content/docs/a.md": "---\ndescription: Missing title\n---\n",
		"content/docs/b.md": "---\ntitle: X\ndescription: Y\norder: 3\n---\n",
	})

	items, err := (&Builder{Config: cfg, Registry: collection.Default()}).Check(context.Background())
	require.Len(t, items, 1)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)

	var sve *collection.SchemaValidationError
	require.True(t, errors.As(errs[0], &sve))
	assert.Equal(t, "title", sve.Field)
	assert.Equal(t, "required", sve.Reason)
}

func TestBuildRequiresHomeLayout(t *testing.T) {
	t.Parallel()
	cfg := newProject(t, map[string]string{
		"layouts/base.html":     "base",
		"content/docs/intro.md": "---\ntitle: Intro\ndescription: d\n---\n",
	})
	_, err := (&Builder{Config: cfg, Registry: collection.Default()}).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home.html")
}

func TestBuildRejectsClashingOutput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name: "slug outside the collection",
			files: map[string]string{
				"content/docs/x.md": "---\ntitle: X\ndescription: d\nslug: ../../escaped\n---\n",
			},
			wantErr: `field "slug"`,
		},
		{
			name: "page slug outside the output directory",
			files: map[string]string{
				"content/x.md": "---\nslug: ../escaped\n---\n",
			},
			wantErr: `field "slug"`,
		},
		{
			name: "two documents with one slug",
			files: map[string]string{
				"content/docs/a.md": "---\ntitle: A\ndescription: d\nslug: same\n---\n",
				"content/docs/b.md": "---\ntitle: B\ndescription: d\nslug: same\n---\n",
			},
			wantErr: `b.md: permalink "/docs/same/" is already used by`,
		},
		{
			name: "page over a collection index",
			files: map[string]string{
				"content/docs.md": "Docs.\n",
			},
			wantErr: `permalink "/docs/" is already used by the "docs" collection index`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := newProject(t, withLayouts(tt.files))

			_, err := (&Builder{Config: cfg, Registry: collection.Default()}).Build(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			root := filepath.Dir(cfg.OutputDir)
			for _, p := range []string{
				filepath.Join(root, "escaped"),
				filepath.Join(filepath.Dir(root), "escaped"),
				cfg.OutputDir,
			} {
				_, statErr := os.Stat(p)
				assert.True(t, os.IsNotExist(statErr), "%s must not be written", p)
			}
		})
	}
}

func TestWritePageStaysInOutputDir(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "public")
	tests := []struct {
		name string
		path string
	}{
		{name: "parent", path: filepath.Join(out, "..", "escaped", "index.html")},
		{name: "sibling with common prefix", path: filepath.Join(out+"-old", "index.html")},
		{name: "the directory itself", path: out},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := writePage(nil, out, tt.path, render.BaseLayout, pageData{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "outside the output directory")
			_, statErr := os.Stat(tt.path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

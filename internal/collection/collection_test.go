package collection

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDocsValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		frontMatter map[string]any
		wantFields  []string
		wantOrder   float64
		wantOrdered bool
	}{
		{
			name:        "title_and_description",
			frontMatter: map[string]any{"title": "Intro", "description": "Getting started"},
		},
		{
			name:        "int_order",
			frontMatter: map[string]any{"title": "Intro", "description": "Getting started", "order": 1},
			wantOrder:   1,
			wantOrdered: true,
		},
		{
			name:        "zero_order_is_still_ordered",
			frontMatter: map[string]any{"title": "Intro", "description": "", "order": 0},
			wantOrder:   0,
			wantOrdered: true,
		},
		{
			name:        "float_and_sized_ints",
			frontMatter: map[string]any{"title": "Intro", "description": "d", "order": int64(-3)},
			wantOrder:   -3,
			wantOrdered: true,
		},
		{
			name:        "missing_title",
			frontMatter: map[string]any{"description": "Missing title"},
			wantFields:  []string{"title"},
		},
		{
			name:        "order_wrong_type",
			frontMatter: map[string]any{"title": "X", "description": "Y", "order": "first"},
			wantFields:  []string{"order"},
		},
		{
			name:        "numeric_string_order",
			frontMatter: map[string]any{"title": "X", "description": "Y", "order": "1"},
			wantFields:  []string{"order"},
		},
		{
			name:        "null_order",
			frontMatter: map[string]any{"title": "X", "description": "Y", "order": nil},
			wantFields:  []string{"order"},
		},
		{
			name:        "nan_order",
			frontMatter: map[string]any{"title": "X", "description": "Y", "order": math.NaN()},
			wantFields:  []string{"order"},
		},
		{
			name:        "empty_title",
			frontMatter: map[string]any{"title": "", "description": "Y"},
			wantFields:  []string{"title"},
		},
		{
			name:        "everything_wrong",
			frontMatter: map[string]any{"title": 42, "order": true},
			wantFields:  []string{"title", "description", "order"},
		},
		{
			name:        "no_front_matter",
			frontMatter: nil,
			wantFields:  []string{"title", "description"},
		},
	}

	reg := Default()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			values, err := reg.Validate("docs", "docs/intro.md", tt.frontMatter)
			if len(tt.wantFields) > 0 {
				require.Error(t, err)
				assert.Nil(t, values)

				var fields []string
				for _, e := range multierr.Errors(err) {
					var sve *SchemaValidationError
					require.True(t, errors.As(e, &sve), "unexpected error type %T", e)
					assert.Equal(t, "docs", sve.Collection)
					assert.Equal(t, "docs/intro.md", sve.Document)
					fields = append(fields, sve.Field)
				}
				assert.Equal(t, tt.wantFields, fields)
				return
			}

			require.NoError(t, err)
			order, ok := values.Number("order")
			assert.Equal(t, tt.wantOrdered, ok)
			assert.Equal(t, tt.wantOrder, order)
			assert.Equal(t, tt.frontMatter["title"], values.String("title"))
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	t.Parallel()
	reg := Default()

	first, err := reg.Validate("docs", "a.md", map[string]any{
		"title": "Intro", "description": "Getting started", "order": uint8(2), "draft": true,
	})
	require.NoError(t, err)

	second, err := reg.Validate("docs", "a.md", first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, true, second["draft"], "undeclared keys pass through")
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := Default().Validate("docs", "content/docs/x.md", map[string]any{
		"title": "X", "description": "Y", "order": "first",
	})
	require.Error(t, err)
	assert.Equal(t,
		`content/docs/x.md: invalid front matter for collection "docs": field "order": expected number, received string`,
		err.Error())
}

func TestUnknownCollection(t *testing.T) {
	t.Parallel()
	_, err := Default().Validate("blog", "content/blog/post.md", map[string]any{"title": "x"})

	var uce *UnknownCollectionError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "blog", uce.Collection)
	assert.Contains(t, err.Error(), "content/blog/post.md")
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unknown collection in a document",
			err:  &UnknownCollectionError{Collection: "blog", Document: "content/blog/a.md"},
			want: `content/blog/a.md: collection "blog" is not defined`,
		},
		{
			name: "unknown collection by name",
			err:  &UnknownCollectionError{Collection: "blog"},
			want: `collection "blog" is not defined`,
		},
		{
			name: "field error on a standalone page",
			err:  &SchemaValidationError{Document: "content/about.md", Field: "slug", Reason: "must be a relative path"},
			want: `content/about.md: invalid front matter: field "slug": must be a relative path`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		defs    []Definition
		wantErr string
	}{
		{name: "empty_registry"},
		{name: "docs_and_data", defs: []Definition{Docs, {Name: "authors", Type: EntryTypeData, Schema: Object(String("name"))}}},
		{name: "duplicate", defs: []Definition{Docs, Docs}, wantErr: "more than once"},
		{name: "empty_name", defs: []Definition{{Type: EntryTypeContent}}, wantErr: "must not be empty"},
		{name: "bad_type", defs: []Definition{{Name: "x", Type: "remote"}}, wantErr: "unknown entry type"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg, err := NewRegistry(tt.defs...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Len(t, reg.Names(), len(tt.defs))
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()
	reg := Default()
	assert.Equal(t, []string{"docs"}, reg.Names())

	def, ok := reg.Lookup("docs")
	require.True(t, ok)
	assert.Equal(t, EntryTypeContent, def.Type)
	require.Len(t, def.Schema.Fields(), 3)

	_, ok = reg.Lookup("blog")
	assert.False(t, ok)
}

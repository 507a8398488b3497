// Package collection declares content collections and the schemas their
// entries' front matter must satisfy.
//
// A Registry is built once at startup and is read-only afterwards, so it can
// be shared by any number of goroutines validating documents.
package collection

import (
	"errors"
	"fmt"
	"sort"
)

// EntryType tells the loader what kind of files make up a collection.
type EntryType string

const (
	// EntryTypeContent entries are markdown documents with front matter.
	EntryTypeContent EntryType = "content"
	// EntryTypeData entries are YAML, JSON or TOML records without a body.
	EntryTypeData EntryType = "data"
)

// Definition is a named collection and the schema its entries follow.
type Definition struct {
	Name   string
	Type   EntryType
	Schema Schema
}

// Registry maps collection names to their definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry from defs. Names must be unique and non-empty.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, errors.New("collection name must not be empty")
		}
		if d.Type != EntryTypeContent && d.Type != EntryTypeData {
			return nil, fmt.Errorf("collection %q: unknown entry type %q", d.Name, d.Type)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("collection %q is defined more than once", d.Name)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered collection names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks a document's front matter against the schema of the named
// collection.
func (r *Registry) Validate(collection, document string, frontMatter map[string]any) (Values, error) {
	d, ok := r.defs[collection]
	if !ok {
		return nil, &UnknownCollectionError{Collection: collection, Document: document}
	}
	return d.Schema.Validate(collection, document, frontMatter)
}

package collection

import "fmt"

// SchemaValidationError reports a document whose front matter violates its
// collection's schema. There is one error per offending field.
type SchemaValidationError struct {
	Collection string
	Document   string
	Field      string
	Reason     string
}

func (e *SchemaValidationError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s: invalid front matter: field %q: %s", e.Document, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid front matter for collection %q: field %q: %s",
		e.Document, e.Collection, e.Field, e.Reason)
}

func fieldError(collection, document, field, reason string) error {
	return &SchemaValidationError{
		Collection: collection,
		Document:   document,
		Field:      field,
		Reason:     reason,
	}
}

// UnknownCollectionError reports a document assigned to a collection that is
// not registered. Document is empty when the collection was asked for by name.
type UnknownCollectionError struct {
	Collection string
	Document   string
}

func (e *UnknownCollectionError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("collection %q is not defined", e.Collection)
	}
	return fmt.Sprintf("%s: collection %q is not defined", e.Document, e.Collection)
}

package collection

// Docs is the documentation collection.
var Docs = Definition{
	Name: "docs",
	Type: EntryTypeContent,
	Schema: Object(
		String("title").AsNonEmpty().Describe("Page title"),
		String("description").Describe("Short summary shown in listings and meta tags"),
		Number("order").AsOptional().Describe("Position in the docs navigation; unordered when absent"),
	),
}

// Default returns the site's collection registry.
func Default() *Registry {
	r, err := NewRegistry(Docs)
	if err != nil {
		panic(err)
	}
	return r
}

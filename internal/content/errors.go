package content

import "fmt"

// DuplicatePermalinkError reports an entry whose permalink is already taken.
// Owner is the source path of the entry that claimed it first, or a
// collection index page.
type DuplicatePermalinkError struct {
	Permalink string
	Document  string
	Owner     string
}

func (e *DuplicatePermalinkError) Error() string {
	return fmt.Sprintf("%s: permalink %q is already used by %s", e.Document, e.Permalink, e.Owner)
}

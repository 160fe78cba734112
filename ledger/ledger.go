// Package ledger tracks which documents are indexed and where their
// vector collections live. Absence from the ledger means a document is
// not indexed, regardless of what may remain on disk.
package ledger

// Record describes one indexed document.
type Record struct {
	Collection string `json:"collection_name"`
	Pages      int    `json:"page_count"`
	Path       string `json:"path"`
}

// Repository is the persisted name -> Record mapping, read and written
// as a whole.
type Repository interface {

	// All returns every record, keyed by document display name. A
	// repository that has never been written returns an empty map.
	All() (map[string]Record, error)

	// Upsert overwrites any existing entry for name and persists.
	Upsert(name string, record Record) error

	// Remove deletes the entry for name and persists. Removing an
	// absent name is a no-op.
	Remove(name string) error
}

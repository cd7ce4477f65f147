package index

// DocumentIndex defines the interface for library index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, body string) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	ListDocuments(collection, tag string, limit, offset int) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)

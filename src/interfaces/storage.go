package interfaces

import "context"

// -----------------------------------------------------------------------------
// IStorage is a small key/bytes store. Keys are slash-separated relative paths.
// -----------------------------------------------------------------------------

type IStorage interface {

	// Get returns the stored bytes; found is false when the key is absent.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// -----------------------------------------------------------------------------

	// Put writes (or overwrites) the value for key.
	Put(ctx context.Context, key string, data []byte) error

	// -----------------------------------------------------------------------------

	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// -----------------------------------------------------------------------------

	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

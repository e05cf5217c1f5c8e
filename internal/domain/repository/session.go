package repository

import "context"

// Session is a scoped unit of work against the document store. It is used by
// exactly one operation and is not safe for concurrent use.
type Session[T Document] interface {
	// Store stages doc for upsert, assigning an id when it has none.
	Store(ctx context.Context, doc T, opts ...StoreOption) error
	// Delete stages removal of the document with id.
	Delete(ctx context.Context, id string) error
	// Load returns the committed document, or a domain.ErrNotFound error.
	Load(ctx context.Context, id string) (T, error)
	Query(ctx context.Context, q Query) ([]T, error)
	// SaveChanges commits everything staged so far as one unit.
	SaveChanges(ctx context.Context) error
	// Close releases the session and discards uncommitted changes. It is
	// safe to call more than once.
	Close() error
}

// SessionProvider hands out sessions. Implementations must allow concurrent
// OpenSession calls.
type SessionProvider[T Document] interface {
	OpenSession(ctx context.Context) (Session[T], error)
}

// ProviderFunc adapts a function to SessionProvider.
type ProviderFunc[T Document] func(ctx context.Context) (Session[T], error)

func (f ProviderFunc[T]) OpenSession(ctx context.Context) (Session[T], error) { return f(ctx) }

type StoreOptions struct {
	// ExpectVersion makes the commit fail with a conflict unless the stored
	// version equals the staged document's version (0: must not exist).
	ExpectVersion bool
}

type StoreOption func(*StoreOptions)

func ExpectVersion() StoreOption {
	return func(o *StoreOptions) { o.ExpectVersion = true }
}

func ApplyStoreOptions(opts []StoreOption) StoreOptions {
	var o StoreOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// IDGenerator produces new document ids.
type IDGenerator func() string

// Pending is a staged change, shared by backends that buffer until commit.
type Pending[T Document] struct {
	ID       string
	Doc      T
	Deleted  bool
	Expected int64
	Check    bool
}

// Stage records a change in order, replacing an earlier change to the same id.
func Stage[T Document](list []Pending[T], p Pending[T]) []Pending[T] {
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

// NextVersion is the version a committed upsert gets. Checked writes build on
// the version they were loaded at; unchecked writes build on whatever is
// stored so versions never go backwards.
func NextVersion[T Document](p Pending[T], stored int64) int64 {
	if p.Check {
		return p.Expected + 1
	}
	return stored + 1
}

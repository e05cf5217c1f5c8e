// Package memory is an in-process document store. Documents are kept as
// encoded JSON so every Load returns an independent copy, the same as a
// remote store would.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

var errSessionClosed = errors.New("session closed")

type record struct {
	body    []byte
	version int64
	terms   []repository.Term
}

// Store holds one collection. It is safe for concurrent sessions.
type Store[T repository.Document] struct {
	mu    sync.RWMutex
	coll  repository.Collection[T]
	docs  map[string]record
	newID repository.IDGenerator
}

func NewStore[T repository.Document](coll repository.Collection[T], newID repository.IDGenerator) *Store[T] {
	return &Store[T]{coll: coll, docs: make(map[string]record), newID: newID}
}

func (s *Store[T]) OpenSession(ctx context.Context) (repository.Session[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session[T]{store: s}, nil
}

// Len returns the number of committed documents.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store[T]) decode(rec record) (T, error) {
	doc := s.coll.New()
	if err := json.Unmarshal(rec.body, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

type session[T repository.Document] struct {
	store   *Store[T]
	pending []repository.Pending[T]
	closed  bool
}

func (s *session[T]) Store(ctx context.Context, doc T, opts ...repository.StoreOption) error {
	const op = "memory.Store"
	if s.closed {
		return domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.DocumentID() == "" {
		doc.AssignDocumentID(s.store.newID())
	}
	o := repository.ApplyStoreOptions(opts)
	s.pending = repository.Stage(s.pending, repository.Pending[T]{
		ID:       doc.DocumentID(),
		Doc:      doc,
		Expected: doc.DocumentVersion(),
		Check:    o.ExpectVersion,
	})
	return nil
}

func (s *session[T]) Delete(ctx context.Context, id string) error {
	if s.closed {
		return domain.StoreFailure("memory.Delete", errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending = repository.Stage(s.pending, repository.Pending[T]{ID: id, Deleted: true})
	return nil
}

func (s *session[T]) Load(ctx context.Context, id string) (T, error) {
	const op = "memory.Load"
	var zero T
	if s.closed {
		return zero, domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.store.mu.RLock()
	rec, ok := s.store.docs[id]
	s.store.mu.RUnlock()
	if !ok {
		return zero, domain.NotFound(op, id)
	}
	doc, err := s.store.decode(rec)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	return doc, nil
}

func (s *session[T]) Query(ctx context.Context, q repository.Query) ([]T, error) {
	const op = "memory.Query"
	if s.closed {
		return nil, domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.store.mu.RLock()
	ids := make([]string, 0)
	recs := make(map[string]record)
	for id, rec := range s.store.docs {
		for _, t := range rec.terms {
			if t == q.Term {
				ids = append(ids, id)
				recs[id] = rec
				break
			}
		}
	}
	s.store.mu.RUnlock()

	sort.Strings(ids)
	ids = repository.Window(ids, q.Offset, q.Limit)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		doc, err := s.store.decode(recs[id])
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *session[T]) SaveChanges(ctx context.Context) error {
	const op = "memory.SaveChanges"
	if s.closed {
		return domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, p := range s.pending {
		if p.Deleted || !p.Check {
			continue
		}
		if current := s.store.docs[p.ID].version; current != p.Expected {
			return domain.Conflict(op, p.ID, p.Expected, current)
		}
	}

	encoded := make(map[string]record, len(s.pending))
	for _, p := range s.pending {
		if p.Deleted {
			continue
		}
		next := repository.NextVersion(p, s.store.docs[p.ID].version)
		p.Doc.SetDocumentVersion(next)
		body, err := json.Marshal(p.Doc)
		if err != nil {
			s.rollbackVersions()
			return domain.StoreFailure(op, err)
		}
		encoded[p.ID] = record{body: body, version: next, terms: p.Doc.IndexTerms()}
	}
	for _, p := range s.pending {
		if p.Deleted {
			delete(s.store.docs, p.ID)
			continue
		}
		s.store.docs[p.ID] = encoded[p.ID]
	}
	s.pending = nil
	return nil
}

func (s *session[T]) rollbackVersions() {
	for _, p := range s.pending {
		if !p.Deleted {
			p.Doc.SetDocumentVersion(p.Expected)
		}
	}
}

func (s *session[T]) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}

var _ repository.SessionProvider[repository.Document] = (*Store[repository.Document])(nil)

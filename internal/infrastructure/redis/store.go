// Package redis keeps identity documents as JSON strings with one set per
// index term. Commits run under WATCH so they apply as a whole or not at all.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

// maxCommitAttempts bounds retries when a watched key changes mid-commit.
const maxCommitAttempts = 5

var errSessionClosed = errors.New("session closed")

// entry is the stored form of a document.
type entry struct {
	Version int64             `json:"version"`
	Terms   []repository.Term `json:"terms"`
	Body    json.RawMessage   `json:"body"`
}

// Store opens sessions against one collection.
type Store[T repository.Document] struct {
	rdb    redis.UniversalClient
	coll   repository.Collection[T]
	prefix string
	newID  repository.IDGenerator
}

// NewStore binds coll to rdb. Every key starts with prefix, which may be
// empty.
func NewStore[T repository.Document](rdb redis.UniversalClient, coll repository.Collection[T], prefix string, newID repository.IDGenerator) *Store[T] {
	return &Store[T]{rdb: rdb, coll: coll, prefix: prefix, newID: newID}
}

func (s *Store[T]) docKey(id string) string {
	return s.prefix + s.coll.Name + ":doc:" + id
}

func (s *Store[T]) termKey(t repository.Term) string {
	return s.prefix + s.coll.Name + ":term:" + t.Key()
}

func (s *Store[T]) OpenSession(ctx context.Context) (repository.Session[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session[T]{store: s}, nil
}

func (s *Store[T]) decode(e entry) (T, error) {
	doc := s.coll.New()
	if err := json.Unmarshal(e.Body, doc); err != nil {
		var zero T
		return zero, err
	}
	doc.SetDocumentVersion(e.Version)
	return doc, nil
}

type session[T repository.Document] struct {
	store   *Store[T]
	pending []repository.Pending[T]
	closed  bool
}

func (s *session[T]) Store(ctx context.Context, doc T, opts ...repository.StoreOption) error {
	if s.closed {
		return domain.StoreFailure("redis.Store", errSessionClosed)
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
		return domain.StoreFailure("redis.Delete", errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending = repository.Stage(s.pending, repository.Pending[T]{ID: id, Deleted: true})
	return nil
}

func (s *session[T]) Load(ctx context.Context, id string) (T, error) {
	const op = "redis.Load"
	var zero T
	if s.closed {
		return zero, domain.StoreFailure(op, errSessionClosed)
	}
	var e entry
	found, err := helpers.RedisGetJSON(ctx, s.store.rdb, s.store.docKey(id), &e)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	if !found {
		return zero, domain.NotFound(op, id)
	}
	doc, err := s.store.decode(e)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	return doc, nil
}

func (s *session[T]) Query(ctx context.Context, q repository.Query) ([]T, error) {
	const op = "redis.Query"
	if s.closed {
		return nil, domain.StoreFailure(op, errSessionClosed)
	}
	ids, err := s.store.rdb.SMembers(ctx, s.store.termKey(q.Term)).Result()
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	sort.Strings(ids)
	ids = repository.Window(ids, q.Offset, q.Limit)
	if len(ids) == 0 {
		return []T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.store.docKey(id)
	}
	vals, err := s.store.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// removed between SMEMBERS and MGET
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		doc, err := s.store.decode(e)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// SaveChanges watches every staged key, diffs the index terms against what is
// stored and applies all writes in one MULTI/EXEC.
func (s *session[T]) SaveChanges(ctx context.Context) error {
	const op = "redis.SaveChanges"
	if s.closed {
		return domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return nil
	}
	keys := make([]string, len(s.pending))
	for i, p := range s.pending {
		keys[i] = s.store.docKey(p.ID)
	}

	var err error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		err = s.store.rdb.Watch(ctx, func(tx *redis.Tx) error {
			return s.apply(ctx, tx)
		}, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		s.rollbackVersions()
		return domain.StoreFailure(op, err)
	}
	s.pending = nil
	return nil
}

func (s *session[T]) apply(ctx context.Context, tx *redis.Tx) error {
	type write struct {
		p       repository.Pending[T]
		key     string
		entry   entry
		removed []repository.Term
		added   []repository.Term
	}
	writes := make([]write, 0, len(s.pending))

	for _, p := range s.pending {
		key := s.store.docKey(p.ID)
		var old entry
		found, err := helpers.RedisGetJSON(ctx, tx, key, &old)
		if err != nil {
			return err
		}
		if !found {
			old = entry{}
		}
		if p.Deleted && !found {
			continue
		}
		w := write{p: p, key: key}
		if p.Deleted {
			w.removed = old.Terms
			writes = append(writes, w)
			continue
		}
		if p.Check && old.Version != p.Expected {
			return domain.Conflict("redis.SaveChanges", p.ID, p.Expected, old.Version)
		}
		next := repository.NextVersion(p, old.Version)
		p.Doc.SetDocumentVersion(next)
		body, err := json.Marshal(p.Doc)
		if err != nil {
			return err
		}
		terms := p.Doc.IndexTerms()
		w.entry = entry{Version: next, Terms: terms, Body: body}
		w.removed, w.added = repository.Diff(old.Terms, terms)
		writes = append(writes, w)
	}

	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			for _, t := range w.removed {
				pipe.SRem(ctx, s.store.termKey(t), w.p.ID)
			}
			if w.p.Deleted {
				pipe.Del(ctx, w.key)
				continue
			}
			for _, t := range w.added {
				pipe.SAdd(ctx, s.store.termKey(t), w.p.ID)
			}
			if err := helpers.RedisSetJSON(ctx, pipe, w.key, w.entry, 0); err != nil {
				return err
			}
		}
		return nil
	})
	return err
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

package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// DB is the part of *pgxpool.Pool the document store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	selectByID = `
		SELECT version, body
		FROM identity_documents
		WHERE collection = $1 AND id = $2`

	selectByTerm = `
		SELECT version, body
		FROM identity_documents
		WHERE collection = $1 AND terms @> ARRAY[$2::text]
		ORDER BY id
		OFFSET $3
		LIMIT NULLIF($4::int, 0)`

	lockVersion = `
		SELECT version
		FROM identity_documents
		WHERE collection = $1 AND id = $2
		FOR UPDATE`

	upsertDocument = `
		INSERT INTO identity_documents (collection, id, version, body, terms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE
		SET version = EXCLUDED.version, body = EXCLUDED.body, terms = EXCLUDED.terms, updated_at = now()`

	insertDocument = `
		INSERT INTO identity_documents (collection, id, version, body, terms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO NOTHING`

	deleteDocument = `
		DELETE FROM identity_documents
		WHERE collection = $1 AND id = $2`
)

var errSessionClosed = errors.New("session closed")

// DocStore keeps every collection in the identity_documents table. Index
// terms live in a GIN indexed text array.
type DocStore[T repository.Document] struct {
	db    DB
	coll  repository.Collection[T]
	newID repository.IDGenerator
}

func NewDocStore[T repository.Document](db DB, coll repository.Collection[T], newID repository.IDGenerator) *DocStore[T] {
	return &DocStore[T]{db: db, coll: coll, newID: newID}
}

func (s *DocStore[T]) OpenSession(ctx context.Context) (repository.Session[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session[T]{store: s}, nil
}

func (s *DocStore[T]) decode(version int64, body []byte) (T, error) {
	doc := s.coll.New()
	if err := json.Unmarshal(body, doc); err != nil {
		var zero T
		return zero, err
	}
	doc.SetDocumentVersion(version)
	return doc, nil
}

type session[T repository.Document] struct {
	store   *DocStore[T]
	pending []repository.Pending[T]
	closed  bool
}

func (s *session[T]) Store(ctx context.Context, doc T, opts ...repository.StoreOption) error {
	if s.closed {
		return domain.StoreFailure("postgres.Store", errSessionClosed)
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
		return domain.StoreFailure("postgres.Delete", errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending = repository.Stage(s.pending, repository.Pending[T]{ID: id, Deleted: true})
	return nil
}

func (s *session[T]) Load(ctx context.Context, id string) (T, error) {
	const op = "postgres.Load"
	var zero T
	if s.closed {
		return zero, domain.StoreFailure(op, errSessionClosed)
	}
	var (
		version int64
		body    []byte
	)
	err := s.store.db.QueryRow(ctx, selectByID, s.store.coll.Name, id).Scan(&version, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, domain.NotFound(op, id)
	}
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	doc, err := s.store.decode(version, body)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	return doc, nil
}

func (s *session[T]) Query(ctx context.Context, q repository.Query) ([]T, error) {
	const op = "postgres.Query"
	if s.closed {
		return nil, domain.StoreFailure(op, errSessionClosed)
	}
	offset := max(q.Offset, 0)
	rows, err := s.store.db.Query(ctx, selectByTerm, s.store.coll.Name, q.Term.Key(), offset, q.Limit)
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var (
			version int64
			body    []byte
		)
		if err := rows.Scan(&version, &body); err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		doc, err := s.store.decode(version, body)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	return out, nil
}

// SaveChanges applies the staged changes in one transaction.
func (s *session[T]) SaveChanges(ctx context.Context) (err error) {
	const op = "postgres.SaveChanges"
	if s.closed {
		return domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.store.db.Begin(ctx)
	if err != nil {
		return domain.StoreFailure(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			s.rollbackVersions()
		}
	}()

	for _, p := range s.pending {
		if err = s.write(ctx, tx, p); err != nil {
			return domain.StoreFailure(op, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.StoreFailure(op, err)
	}
	s.pending = nil
	return nil
}

func (s *session[T]) write(ctx context.Context, tx pgx.Tx, p repository.Pending[T]) error {
	const op = "postgres.SaveChanges"
	name := s.store.coll.Name
	if p.Deleted {
		_, err := tx.Exec(ctx, deleteDocument, name, p.ID)
		return err
	}

	var stored int64
	err := tx.QueryRow(ctx, lockVersion, name, p.ID).Scan(&stored)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if p.Check && stored != p.Expected {
		return domain.Conflict(op, p.ID, p.Expected, stored)
	}

	next := repository.NextVersion(p, stored)
	p.Doc.SetDocumentVersion(next)
	body, err := json.Marshal(p.Doc)
	if err != nil {
		return err
	}
	terms := repository.Keys(p.Doc.IndexTerms())

	if p.Check && stored == 0 {
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, insertDocument, name, p.ID, next, body, terms)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.Error{Kind: domain.KindConflict, Op: op, Msg: "document " + p.ID + " was created concurrently"}
		}
		return nil
	}
	_, err = tx.Exec(ctx, upsertDocument, name, p.ID, next, body, terms)
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

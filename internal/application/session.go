package application

import (
	"context"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
	"github.com/oksasatya/go-identity-docstore/pkg/validation"
)

// withSession runs fn inside a fresh session and closes it on every path.
// Cancellation is honoured before the session is opened only.
func withSession[T repository.Document](ctx context.Context, p repository.SessionProvider[T], op string, fn func(repository.Session[T]) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	sess, err := p.OpenSession(ctx)
	if err != nil {
		return domain.StoreFailure(op, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = domain.StoreFailure(op, cerr)
		}
	}()
	if err := fn(sess); err != nil {
		return domain.StoreFailure(op, err)
	}
	return nil
}

// commit stages with fn and saves. SaveChanges runs detached from ctx
// cancellation: a started commit is never interrupted half way.
func commit[T repository.Document](ctx context.Context, p repository.SessionProvider[T], op string, fn func(repository.Session[T]) error) error {
	return withSession(ctx, p, op, func(sess repository.Session[T]) error {
		if err := fn(sess); err != nil {
			return err
		}
		return sess.SaveChanges(context.WithoutCancel(ctx))
	})
}

func load[T repository.Document](ctx context.Context, p repository.SessionProvider[T], op, id string) (T, error) {
	var doc T
	err := withSession(ctx, p, op, func(sess repository.Session[T]) error {
		var lerr error
		doc, lerr = sess.Load(ctx, id)
		return lerr
	})
	return doc, err
}

func query[T repository.Document](ctx context.Context, p repository.SessionProvider[T], op string, q repository.Query) ([]T, error) {
	var docs []T
	err := withSession(ctx, p, op, func(sess repository.Session[T]) error {
		var qerr error
		docs, qerr = sess.Query(ctx, q)
		return qerr
	})
	return docs, err
}

// queryFirst returns the first match by id, or a not found error.
func queryFirst[T repository.Document](ctx context.Context, p repository.SessionProvider[T], op string, t repository.Term) (T, error) {
	docs, err := query(ctx, p, op, repository.Query{Term: t, Limit: 1})
	if err != nil {
		var zero T
		return zero, err
	}
	if len(docs) == 0 {
		var zero T
		return zero, &domain.Error{Kind: domain.KindNotFound, Op: op, Msg: "no document matches the " + t.Field + " lookup"}
	}
	return docs[0], nil
}

func validate(op string, v any) error {
	if err := validation.Struct(v); err != nil {
		return &domain.Error{Kind: domain.KindInvalidArgument, Op: op, Msg: validation.Summary(err), Err: err}
	}
	return nil
}

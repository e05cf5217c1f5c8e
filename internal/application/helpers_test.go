package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-docstore/internal/application"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
	"github.com/oksasatya/go-identity-docstore/internal/infrastructure/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sequentialIDs(prefix string) repository.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s/%d", prefix, n)
	}
}

// countingProvider records how many sessions were opened and closed.
type countingProvider[T repository.Document] struct {
	inner  repository.SessionProvider[T]
	mu     sync.Mutex
	opened int
	closed int
}

func (p *countingProvider[T]) OpenSession(ctx context.Context) (repository.Session[T], error) {
	sess, err := p.inner.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.opened++
	p.mu.Unlock()
	return &countingSession[T]{Session: sess, p: p}, nil
}

func (p *countingProvider[T]) counts() (opened, closed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened, p.closed
}

type countingSession[T repository.Document] struct {
	repository.Session[T]
	p *countingProvider[T]
}

func (s *countingSession[T]) Close() error {
	s.p.mu.Lock()
	s.p.closed++
	s.p.mu.Unlock()
	return s.Session.Close()
}

// failingSession fails every commit with err.
type failingSession[T repository.Document] struct {
	repository.Session[T]
	err error
}

func (s *failingSession[T]) SaveChanges(context.Context) error { return s.err }

func failingCommits[T repository.Document](inner repository.SessionProvider[T], err error) repository.SessionProvider[T] {
	return repository.ProviderFunc[T](func(ctx context.Context) (repository.Session[T], error) {
		sess, oerr := inner.OpenSession(ctx)
		if oerr != nil {
			return nil, oerr
		}
		return &failingSession[T]{Session: sess, err: err}, nil
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []application.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev application.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var errBackendDown = errors.New("backend down")

type userFixture struct {
	store    *application.UserStore
	backend  *memory.Store[*entity.User]
	sessions *countingProvider[*entity.User]
	events   *recordingPublisher
}

func newUserFixture(t *testing.T, opts ...application.Option) *userFixture {
	t.Helper()
	backend := memory.NewStore(entity.Users, sequentialIDs("users"))
	sessions := &countingProvider[*entity.User]{inner: backend}
	events := &recordingPublisher{}
	opts = append([]application.Option{application.WithClock(clock), application.WithEventPublisher(events)}, opts...)
	store, err := application.NewUserStore(sessions, opts...)
	require.NoError(t, err)
	return &userFixture{store: store, backend: backend, sessions: sessions, events: events}
}

func (f *userFixture) create(t *testing.T, name string) *entity.User {
	t.Helper()
	u, err := entity.NewUser(name)
	require.NoError(t, err)
	require.NoError(t, f.store.Create(context.Background(), u))
	return u
}

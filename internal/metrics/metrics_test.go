package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
	"github.com/oksasatya/go-identity-docstore/internal/infrastructure/memory"
)

func TestInstrument_CountsOutcomes(t *testing.T) {
	ctx := context.Background()
	m := New(prometheus.NewRegistry())
	store := memory.NewStore(entity.Users, func() string { return "users/1" })
	p := Instrument[*entity.User](store, m, "users")

	sess, err := p.OpenSession(ctx)
	require.NoError(t, err)
	defer sess.Close()

	u, err := entity.NewUser("ana")
	require.NoError(t, err)
	u.NormalizedUserName = "ANA"
	require.NoError(t, sess.Store(ctx, u))
	require.NoError(t, sess.SaveChanges(ctx))

	_, err = sess.Load(ctx, "users/1")
	require.NoError(t, err)
	_, err = sess.Load(ctx, "users/404")
	require.ErrorIs(t, err, domain.ErrNotFound)

	stale := *u
	stale.SetDocumentVersion(0)
	require.NoError(t, sess.Store(ctx, &stale, repository.ExpectVersion()))
	require.ErrorIs(t, sess.SaveChanges(ctx), domain.ErrConcurrencyConflict)

	_, err = sess.Query(ctx, repository.Query{Term: entity.NameTerm("ANA")})
	require.NoError(t, err)

	expected := map[[2]string]float64{
		{"open", "ok"}:        1,
		{"save", "ok"}:        1,
		{"save", "conflict"}:  1,
		{"load", "ok"}:        1,
		{"load", "not_found"}: 1,
		{"query", "ok"}:       1,
	}
	for labels, want := range expected {
		got := testutil.ToFloat64(m.operations.WithLabelValues("users", labels[0], labels[1]))
		assert.Equal(t, want, got, "%v", labels)
	}
	assert.Equal(t, len(expected), testutil.CollectAndCount(m.operations))
	assert.Equal(t, 4, testutil.CollectAndCount(m.duration))
}

func TestInstrument_OpenFailure(t *testing.T) {
	m := New(prometheus.NewRegistry())
	store := memory.NewStore(entity.Roles, func() string { return "roles/1" })
	p := Instrument[*entity.Role](store, m, "roles")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.OpenSession(ctx)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("roles", "open", "error")))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "not_found", outcome(domain.NotFound("op", "x")))
	assert.Equal(t, "conflict", outcome(domain.Conflict("op", "x", 1, 2)))
	assert.Equal(t, "error", outcome(domain.StoreFailure("op", context.DeadlineExceeded)))
	assert.Equal(t, "error", outcome(context.Canceled))
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := New(reg)
	p := Instrument[*entity.User](memory.NewStore(entity.Users, func() string { return "users/1" }), m, "users")

	sess, err := p.OpenSession(ctx)
	require.NoError(t, err)
	_, err = sess.Load(ctx, "users/404")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, sess.Close())

	samples, err := Snapshot(reg)
	require.NoError(t, err)

	counters := map[string]float64{}
	var histograms uint64
	for _, s := range samples {
		assert.Equal(t, "users", s.Labels["collection"])
		switch s.Name {
		case "identity_store_operations_total":
			counters[s.Labels["operation"]+"/"+s.Labels["outcome"]] = s.Value
		case "identity_store_operation_duration_seconds":
			histograms += s.Count
		}
	}
	assert.Equal(t, map[string]float64{"open/ok": 1, "load/not_found": 1}, counters)
	assert.Equal(t, uint64(2), histograms)
}

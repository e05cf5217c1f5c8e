package container

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-identity-docstore/config"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		AppName:         "identityctl",
		Backend:         backend,
		IDStrategy:      helpers.IDStrategyULID,
		IDPrefix:        "ids",
		ClaimQueryLimit: 10,
		KeyPrefix:       "test:",
	}
}

func createAndFind(t *testing.T, c *Container) {
	t.Helper()
	ctx := context.Background()
	u, err := entity.NewUser("Ana")
	require.NoError(t, err)
	require.NoError(t, c.Users.Create(ctx, u))
	assert.Contains(t, u.ID(), "ids/")

	found, err := c.Users.FindByName(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), found.ID())
}

func TestNew_Memory(t *testing.T) {
	cfg := testConfig(config.BackendMemory)
	cfg.MetricsEnabled = true

	c, err := New(context.Background(), cfg, helpers.NopLogger())
	require.NoError(t, err)
	defer c.Close()

	createAndFind(t, c)
	require.NotNil(t, c.Metrics)
	assert.Positive(t, mustGatherAndCount(t, c))
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.BackendRedis)
	cfg.RedisAddr = mr.Addr()

	c, err := New(context.Background(), cfg, helpers.NopLogger())
	require.NoError(t, err)
	defer c.Close()

	createAndFind(t, c)
	assert.Nil(t, c.Metrics)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), testConfig("cassandra"), helpers.NopLogger())
	assert.ErrorContains(t, err, `unknown identity backend "cassandra"`)

	cfg := testConfig(config.BackendMemory)
	cfg.IDStrategy = "snowflake"
	_, err = New(context.Background(), cfg, helpers.NopLogger())
	assert.Error(t, err)
}

func TestClose_ReverseOrder(t *testing.T) {
	var order []int
	c := &Container{}
	c.closers = append(c.closers, func() { order = append(order, 1) }, func() { order = append(order, 2) })
	c.Close()
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func mustGatherAndCount(t *testing.T, c *Container) int {
	t.Helper()
	n, err := testutil.GatherAndCount(c.Metrics, "identity_store_operations_total")
	require.NoError(t, err)
	return n
}

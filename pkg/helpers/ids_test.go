package helpers

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator(t *testing.T) {
	gen, err := IDGenerator("", "")
	require.NoError(t, err)
	_, err = uuid.Parse(gen())
	assert.NoError(t, err)

	gen, err = IDGenerator(IDStrategyULID, "users")
	require.NoError(t, err)
	id := gen()
	require.True(t, strings.HasPrefix(id, "users/"))
	_, err = ulid.ParseStrict(strings.TrimPrefix(id, "users/"))
	assert.NoError(t, err)

	_, err = IDGenerator("snowflake", "")
	assert.Error(t, err)
}

func TestNewULID_Monotonic(t *testing.T) {
	prev := NewULID()
	for i := 0; i < 100; i++ {
		next := NewULID()
		require.Less(t, prev, next)
		prev = next
	}
}

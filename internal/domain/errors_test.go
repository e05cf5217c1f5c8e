package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
)

func TestError_MatchesSentinelOfItsKind(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{domain.InvalidArgument("op", "user"), domain.ErrInvalidArgument},
		{domain.DuplicateLogin("op", "google", "123"), domain.ErrDuplicateLogin},
		{domain.Precondition("op", "no email"), domain.ErrPrecondition},
		{domain.NotFound("op", "u1"), domain.ErrNotFound},
		{domain.Conflict("op", "u1", 1, 2), domain.ErrConcurrencyConflict},
		{domain.StoreFailure("op", errors.New("boom")), domain.ErrStore},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel, tc.err.Error())
		assert.NotErrorIs(t, tc.err, errors.New(tc.sentinel.Error()))
	}
}

func TestError_MessageCarriesOpAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := domain.StoreFailure("redis.Load", cause)

	assert.Equal(t, "redis.Load: store failure: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `AddLogin: login google/123 is already linked`, domain.DuplicateLogin("AddLogin", "google", "123").Error())
}

func TestStoreFailure_KeepsExistingKind(t *testing.T) {
	inner := domain.Conflict("memory.SaveChanges", "u1", 1, 3)
	wrapped := fmt.Errorf("commit: %w", inner)

	err := domain.StoreFailure("UserStore.Update", wrapped)

	assert.Same(t, wrapped, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.NoError(t, domain.StoreFailure("op", nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindNotFound, domain.KindOf(domain.NotFound("op", "x")))
	assert.Equal(t, domain.KindUnknown, domain.KindOf(errors.New("plain")))
	assert.Equal(t, domain.KindUnknown, domain.KindOf(nil))
	assert.Equal(t, "precondition failed", domain.KindPrecondition.String())
}

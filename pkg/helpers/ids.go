package helpers

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	IDStrategyUUID = "uuid"
	IDStrategyULID = "ulid"
)

// NewUUID returns a random v4 UUID string.
func NewUUID() string {
	return uuid.NewString()
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a lexically sortable id. The monotonic entropy source is
// not goroutine safe, hence the lock.
func NewULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// IDGenerator returns the generator for strategy, prefixing ids with
// "<prefix>/" when prefix is set.
func IDGenerator(strategy, prefix string) (func() string, error) {
	var gen func() string
	switch strategy {
	case "", IDStrategyUUID:
		gen = NewUUID
	case IDStrategyULID:
		gen = NewULID
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
	if prefix == "" {
		return gen, nil
	}
	return func() string { return prefix + "/" + gen() }, nil
}

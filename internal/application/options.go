package application

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

// DefaultClaimQueryLimit caps FindUsersForClaim results.
const DefaultClaimQueryLimit = 128

type options struct {
	logger           *logrus.Logger
	normalize        helpers.Normalizer
	concurrencyCheck bool
	claimQueryLimit  int
	publisher        EventPublisher
	now              func() time.Time
}

// Option configures a UserStore or RoleStore.
type Option func(*options)

func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNormalizer sets the lookup normalizer used to fill normalized names
// and email addresses.
func WithNormalizer(n helpers.Normalizer) Option {
	return func(o *options) {
		if n != nil {
			o.normalize = n
		}
	}
}

// WithConcurrencyCheck makes Update fail with domain.ErrConcurrencyConflict
// when the stored document changed since it was loaded. Without it the last
// commit wins.
func WithConcurrencyCheck() Option {
	return func(o *options) { o.concurrencyCheck = true }
}

func WithClaimQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.claimQueryLimit = n
		}
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:          helpers.NopLogger(),
		normalize:       helpers.UpperInvariant,
		claimQueryLimit: DefaultClaimQueryLimit,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

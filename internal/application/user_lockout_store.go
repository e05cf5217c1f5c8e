package application

import (
	"time"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

// Lockout state is created on first write. Normalize drops it again once it
// is back at defaults.

func lockout(u *entity.User) *entity.Lockout {
	if u.Lockout == nil {
		u.Lockout = &entity.Lockout{}
	}
	return u.Lockout
}

func (s *UserStore) GetLockoutEndDate(u *entity.User) (*time.Time, error) {
	if u == nil {
		return nil, domain.InvalidArgument("GetLockoutEndDate", "user")
	}
	if u.Lockout == nil || u.Lockout.EndDate == nil {
		return nil, nil
	}
	end := *u.Lockout.EndDate
	return &end, nil
}

// SetLockoutEndDate sets or, with nil, clears the end of the lockout.
func (s *UserStore) SetLockoutEndDate(u *entity.User, end *time.Time) error {
	if u == nil {
		return domain.InvalidArgument("SetLockoutEndDate", "user")
	}
	if end == nil {
		if u.Lockout != nil {
			u.Lockout.EndDate = nil
		}
		return nil
	}
	t := end.UTC()
	lockout(u).EndDate = &t
	return nil
}

func (s *UserStore) IncrementAccessFailedCount(u *entity.User) (int, error) {
	if u == nil {
		return 0, domain.InvalidArgument("IncrementAccessFailedCount", "user")
	}
	l := lockout(u)
	l.AccessFailedCount++
	return l.AccessFailedCount, nil
}

func (s *UserStore) ResetAccessFailedCount(u *entity.User) error {
	if u == nil {
		return domain.InvalidArgument("ResetAccessFailedCount", "user")
	}
	if u.Lockout != nil {
		u.Lockout.AccessFailedCount = 0
	}
	return nil
}

func (s *UserStore) GetAccessFailedCount(u *entity.User) (int, error) {
	if u == nil {
		return 0, domain.InvalidArgument("GetAccessFailedCount", "user")
	}
	if u.Lockout == nil {
		return 0, nil
	}
	return u.Lockout.AccessFailedCount, nil
}

func (s *UserStore) GetLockoutEnabled(u *entity.User) (bool, error) {
	if u == nil {
		return false, domain.InvalidArgument("GetLockoutEnabled", "user")
	}
	return u.Lockout != nil && u.Lockout.Enabled, nil
}

func (s *UserStore) SetLockoutEnabled(u *entity.User, enabled bool) error {
	if u == nil {
		return domain.InvalidArgument("SetLockoutEnabled", "user")
	}
	if !enabled && u.Lockout == nil {
		return nil
	}
	lockout(u).Enabled = enabled
	return nil
}

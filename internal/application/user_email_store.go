package application

import (
	"context"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

const errNoEmail = "user has no email"

// SetEmail replaces the user's email. The previous confirmation is dropped
// and the normalized address is derived with the store's normalizer.
func (s *UserStore) SetEmail(u *entity.User, email string) error {
	const op = "SetEmail"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if email == "" {
		return domain.InvalidArgument(op, "email")
	}
	e := entity.NewEmail(email)
	e.NormalizedAddress = s.normalize(email)
	u.Email = e
	return nil
}

func (s *UserStore) GetEmail(u *entity.User) (string, error) {
	const op = "GetEmail"
	if u == nil {
		return "", domain.InvalidArgument(op, "user")
	}
	if u.Email == nil {
		return "", domain.Precondition(op, errNoEmail)
	}
	return u.Email.Address, nil
}

func (s *UserStore) GetEmailConfirmed(u *entity.User) (bool, error) {
	const op = "GetEmailConfirmed"
	if u == nil {
		return false, domain.InvalidArgument(op, "user")
	}
	if u.Email == nil {
		return false, domain.Precondition(op, errNoEmail)
	}
	return u.Email.IsConfirmed(), nil
}

// SetEmailConfirmed stamps the confirmation time, or clears it.
func (s *UserStore) SetEmailConfirmed(u *entity.User, confirmed bool) error {
	const op = "SetEmailConfirmed"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if u.Email == nil {
		return domain.Precondition(op, errNoEmail)
	}
	if confirmed {
		t := s.now()
		u.Email.ConfirmationTime = &t
	} else {
		u.Email.ConfirmationTime = nil
	}
	return nil
}

// FindByEmail is an exact match on the normalized address.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error) {
	const op = "UserStore.FindByEmail"
	if normalizedEmail == "" {
		return nil, domain.InvalidArgument(op, "normalizedEmail")
	}
	return queryFirst(ctx, s.sessions, op, entity.EmailTerm(normalizedEmail))
}

// GetNormalizedEmail returns "" when the user has no email.
func (s *UserStore) GetNormalizedEmail(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetNormalizedEmail", "user")
	}
	if u.Email == nil {
		return "", nil
	}
	return u.Email.NormalizedAddress, nil
}

// SetNormalizedEmail is ignored when the user has no email or the value is
// empty.
func (s *UserStore) SetNormalizedEmail(u *entity.User, normalizedEmail string) error {
	if u == nil {
		return domain.InvalidArgument("SetNormalizedEmail", "user")
	}
	if u.Email != nil && normalizedEmail != "" {
		u.Email.NormalizedAddress = normalizedEmail
	}
	return nil
}

package application

import (
	"context"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

// AddLogin links login to u. It fails with domain.ErrDuplicateLogin when the
// provider and key are already linked.
func (s *UserStore) AddLogin(u *entity.User, login entity.Login) error {
	if u == nil {
		return domain.InvalidArgument("AddLogin", "user")
	}
	return u.AddLogin(login)
}

func (s *UserStore) RemoveLogin(u *entity.User, loginProvider, providerKey string) error {
	const op = "RemoveLogin"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if loginProvider == "" {
		return domain.InvalidArgument(op, "loginProvider")
	}
	if providerKey == "" {
		return domain.InvalidArgument(op, "providerKey")
	}
	u.RemoveLogin(loginProvider, providerKey)
	return nil
}

// GetLogins returns a snapshot; changing it does not affect u.
func (s *UserStore) GetLogins(u *entity.User) ([]entity.Login, error) {
	if u == nil {
		return nil, domain.InvalidArgument("GetLogins", "user")
	}
	return u.LoginsSnapshot(), nil
}

// FindByLogin returns the user linked to the login. Uniqueness across users
// is not enforced by the store; the lowest id wins.
func (s *UserStore) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*entity.User, error) {
	const op = "UserStore.FindByLogin"
	if loginProvider == "" {
		return nil, domain.InvalidArgument(op, "loginProvider")
	}
	if providerKey == "" {
		return nil, domain.InvalidArgument(op, "providerKey")
	}
	if err := entity.NewLogin(loginProvider, providerKey, "").Check(op); err != nil {
		return nil, err
	}
	return queryFirst(ctx, s.sessions, op, entity.LoginTerm(loginProvider, providerKey))
}

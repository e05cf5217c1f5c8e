package application

import (
	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

// SetPasswordHash stores hash verbatim. An empty hash removes the password.
func (s *UserStore) SetPasswordHash(u *entity.User, passwordHash string) error {
	if u == nil {
		return domain.InvalidArgument("SetPasswordHash", "user")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *UserStore) GetPasswordHash(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetPasswordHash", "user")
	}
	return u.PasswordHash, nil
}

func (s *UserStore) HasPassword(u *entity.User) (bool, error) {
	if u == nil {
		return false, domain.InvalidArgument("HasPassword", "user")
	}
	return u.PasswordHash != "", nil
}

func (s *UserStore) SetSecurityStamp(u *entity.User, stamp string) error {
	const op = "SetSecurityStamp"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if stamp == "" {
		return domain.InvalidArgument(op, "stamp")
	}
	u.SecurityStamp = stamp
	return nil
}

func (s *UserStore) GetSecurityStamp(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetSecurityStamp", "user")
	}
	return u.SecurityStamp, nil
}

func (s *UserStore) SetTwoFactorEnabled(u *entity.User, enabled bool) error {
	if u == nil {
		return domain.InvalidArgument("SetTwoFactorEnabled", "user")
	}
	u.UsesTwoFactorAuthentication = enabled
	return nil
}

func (s *UserStore) GetTwoFactorEnabled(u *entity.User) (bool, error) {
	if u == nil {
		return false, domain.InvalidArgument("GetTwoFactorEnabled", "user")
	}
	return u.UsesTwoFactorAuthentication, nil
}

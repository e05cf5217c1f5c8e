package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

// The user store is split by capability so callers depend only on what they
// use. *UserStore implements all of them.

// UserCoreStore persists users and reads their names.
type UserCoreStore interface {
	GetUserID(u *entity.User) (string, error)
	GetUserName(u *entity.User) (string, error)
	SetUserName(u *entity.User, userName string) error
	GetNormalizedUserName(u *entity.User) (string, error)
	SetNormalizedUserName(u *entity.User, normalizedName string) error
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByName(ctx context.Context, normalizedUserName string) (*entity.User, error)
}

// UserLoginStore manages federated logins. Add and Remove only change the
// in-memory user; call Update to persist.
type UserLoginStore interface {
	AddLogin(u *entity.User, login entity.Login) error
	RemoveLogin(u *entity.User, loginProvider, providerKey string) error
	GetLogins(u *entity.User) ([]entity.Login, error)
	FindByLogin(ctx context.Context, loginProvider, providerKey string) (*entity.User, error)
}

type UserPasswordStore interface {
	SetPasswordHash(u *entity.User, passwordHash string) error
	GetPasswordHash(u *entity.User) (string, error)
	HasPassword(u *entity.User) (bool, error)
}

type UserClaimStore interface {
	GetClaims(u *entity.User) ([]Claim, error)
	AddClaims(u *entity.User, claims []Claim) error
	ReplaceClaim(u *entity.User, claim, newClaim Claim) error
	RemoveClaims(u *entity.User, claims []Claim) error
	FindUsersForClaim(ctx context.Context, claim Claim) ([]*entity.User, error)
}

type UserSecurityStampStore interface {
	SetSecurityStamp(u *entity.User, stamp string) error
	GetSecurityStamp(u *entity.User) (string, error)
}

type UserTwoFactorStore interface {
	SetTwoFactorEnabled(u *entity.User, enabled bool) error
	GetTwoFactorEnabled(u *entity.User) (bool, error)
}

type UserEmailStore interface {
	SetEmail(u *entity.User, email string) error
	GetEmail(u *entity.User) (string, error)
	GetEmailConfirmed(u *entity.User) (bool, error)
	SetEmailConfirmed(u *entity.User, confirmed bool) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error)
	GetNormalizedEmail(u *entity.User) (string, error)
	SetNormalizedEmail(u *entity.User, normalizedEmail string) error
}

type UserPhoneStore interface {
	SetPhoneNumber(u *entity.User, number string) error
	GetPhoneNumber(u *entity.User) (string, error)
	GetPhoneNumberConfirmed(u *entity.User) (bool, error)
	SetPhoneNumberConfirmed(u *entity.User, confirmed bool) error
}

type UserLockoutStore interface {
	GetLockoutEndDate(u *entity.User) (*time.Time, error)
	SetLockoutEndDate(u *entity.User, end *time.Time) error
	IncrementAccessFailedCount(u *entity.User) (int, error)
	ResetAccessFailedCount(u *entity.User) error
	GetAccessFailedCount(u *entity.User) (int, error)
	GetLockoutEnabled(u *entity.User) (bool, error)
	SetLockoutEnabled(u *entity.User, enabled bool) error
}

// RoleCoreStore persists roles.
type RoleCoreStore interface {
	GetRoleID(r *entity.Role) (string, error)
	GetRoleName(r *entity.Role) (string, error)
	SetRoleName(r *entity.Role, name string) error
	GetNormalizedRoleName(r *entity.Role) (string, error)
	SetNormalizedRoleName(r *entity.Role, normalizedName string) error
	Create(ctx context.Context, r *entity.Role) error
	Update(ctx context.Context, r *entity.Role) error
	Delete(ctx context.Context, r *entity.Role) error
	FindByID(ctx context.Context, id string) (*entity.Role, error)
	FindByName(ctx context.Context, normalizedName string) (*entity.Role, error)
}

type RoleClaimStore interface {
	GetClaims(r *entity.Role) ([]Claim, error)
	AddClaim(r *entity.Role, claim Claim) error
	RemoveClaim(r *entity.Role, claim Claim) error
}

var (
	_ UserCoreStore          = (*UserStore)(nil)
	_ UserLoginStore         = (*UserStore)(nil)
	_ UserPasswordStore      = (*UserStore)(nil)
	_ UserClaimStore         = (*UserStore)(nil)
	_ UserSecurityStampStore = (*UserStore)(nil)
	_ UserTwoFactorStore     = (*UserStore)(nil)
	_ UserEmailStore         = (*UserStore)(nil)
	_ UserPhoneStore         = (*UserStore)(nil)
	_ UserLockoutStore       = (*UserStore)(nil)
	_ RoleCoreStore          = (*RoleStore)(nil)
	_ RoleClaimStore         = (*RoleStore)(nil)
)

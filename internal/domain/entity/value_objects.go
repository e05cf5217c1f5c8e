package entity

import (
	"time"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// Email is the contact address of a user. NormalizedAddress is the form
// lookups are performed against.
type Email struct {
	Address           string     `json:"address" validate:"omitempty,email"`
	NormalizedAddress string     `json:"normalizedAddress"`
	ConfirmationTime  *time.Time `json:"confirmationTime,omitempty"`
}

// NewEmail builds an Email with only the address set.
func NewEmail(address string) *Email {
	return &Email{Address: address}
}

func (e *Email) IsConfirmed() bool { return e != nil && e.ConfirmationTime != nil }

// IsDefault reports whether every field holds its zero value.
func (e *Email) IsDefault() bool {
	return e.Address == "" && e.NormalizedAddress == "" && e.ConfirmationTime == nil
}

// Phone is the contact number of a user.
type Phone struct {
	Number           string     `json:"number" validate:"omitempty,phone"`
	ConfirmationTime *time.Time `json:"confirmationTime,omitempty"`
}

// NewPhone builds a Phone with only the number set.
func NewPhone(number string) *Phone {
	return &Phone{Number: number}
}

func (p *Phone) IsConfirmed() bool { return p != nil && p.ConfirmationTime != nil }

func (p *Phone) IsDefault() bool {
	return p.Number == "" && p.ConfirmationTime == nil
}

// Lockout tracks failed access attempts and the lockout window.
type Lockout struct {
	EndDate           *time.Time `json:"endDate,omitempty"`
	Enabled           bool       `json:"enabled"`
	AccessFailedCount int        `json:"accessFailedCount" validate:"min=0"`
}

func (l *Lockout) IsDefault() bool {
	return l.EndDate == nil && !l.Enabled && l.AccessFailedCount == 0
}

// Claim is a (Type, Value) attribute. Two claims are equal when both fields
// match, so == is the structural comparison.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func NewClaim(typ, value string) Claim {
	return Claim{Type: typ, Value: value}
}

// IsZero reports an unset claim.
func (c Claim) IsZero() bool { return c.Type == "" }

// Check fails for an unset claim or one that cannot be indexed exactly.
func (c Claim) Check(op string) error {
	if c.IsZero() {
		return domain.InvalidArgument(op, "claim")
	}
	return checkTermParts(op, "claim", c.Type, c.Value)
}

// Login links a user to an external identity provider account.
// (LoginProvider, ProviderKey) identifies it.
type Login struct {
	LoginProvider string `json:"loginProvider"`
	ProviderKey   string `json:"providerKey"`
	DisplayName   string `json:"displayName,omitempty"`
}

func NewLogin(provider, key, displayName string) Login {
	return Login{LoginProvider: provider, ProviderKey: key, DisplayName: displayName}
}

func (l Login) IsZero() bool { return l.LoginProvider == "" || l.ProviderKey == "" }

// Check fails for an unset login or one that cannot be indexed exactly.
func (l Login) Check(op string) error {
	if l.IsZero() {
		return domain.InvalidArgument(op, "login")
	}
	return checkTermParts(op, "login", l.LoginProvider, l.ProviderKey)
}

func checkTermParts(op, arg string, parts ...string) error {
	for _, p := range parts {
		if repository.HasSeparator(p) {
			return &domain.Error{Kind: domain.KindInvalidArgument, Op: op, Msg: arg + " contains the reserved character U+001F"}
		}
	}
	return nil
}

func (l Login) matches(provider, key string) bool {
	return l.LoginProvider == provider && l.ProviderKey == key
}

// removeFirstClaim drops the first claim equal to c.
func removeFirstClaim(claims []Claim, c Claim) []Claim {
	for i := range claims {
		if claims[i] == c {
			return append(claims[:i:i], claims[i+1:]...)
		}
	}
	return claims
}

package application

import (
	"context"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

func (s *UserStore) GetClaims(u *entity.User) ([]Claim, error) {
	if u == nil {
		return nil, domain.InvalidArgument("GetClaims", "user")
	}
	return fromEntityClaims(u.Claims), nil
}

// AddClaims appends every claim. All claims are checked before u changes.
func (s *UserStore) AddClaims(u *entity.User, claims []Claim) error {
	const op = "AddClaims"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	converted, err := toEntityClaims(op, claims)
	if err != nil {
		return err
	}
	for _, c := range converted {
		if err := u.AddClaim(c); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceClaim removes the first claim equal to claim, then adds newClaim.
func (s *UserStore) ReplaceClaim(u *entity.User, claim, newClaim Claim) error {
	const op = "ReplaceClaim"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	old, repl := ToEntityClaim(claim), ToEntityClaim(newClaim)
	if old.IsZero() {
		return domain.InvalidArgument(op, "claim")
	}
	if repl.IsZero() {
		return domain.InvalidArgument(op, "newClaim")
	}
	if err := repl.Check(op); err != nil {
		return err
	}
	u.RemoveClaim(old)
	return u.AddClaim(repl)
}

// RemoveClaims drops one occurrence of each claim. Missing claims are ignored.
func (s *UserStore) RemoveClaims(u *entity.User, claims []Claim) error {
	const op = "RemoveClaims"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	converted, err := toEntityClaims(op, claims)
	if err != nil {
		return err
	}
	for _, c := range converted {
		u.RemoveClaim(c)
	}
	return nil
}

// FindUsersForClaim returns the users holding claim, ordered by id and capped
// at the configured claim query limit.
func (s *UserStore) FindUsersForClaim(ctx context.Context, claim Claim) ([]*entity.User, error) {
	return s.FindUsersForClaimPage(ctx, claim, 0, s.claimQueryLimit)
}

// FindUsersForClaimPage pages through the users holding claim. A limit of
// zero or less uses the configured claim query limit.
func (s *UserStore) FindUsersForClaimPage(ctx context.Context, claim Claim, offset, limit int) ([]*entity.User, error) {
	const op = "UserStore.FindUsersForClaim"
	c := ToEntityClaim(claim)
	if err := c.Check(op); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, &domain.Error{Kind: domain.KindInvalidArgument, Op: op, Msg: "offset must not be negative"}
	}
	if limit <= 0 {
		limit = s.claimQueryLimit
	}
	return query(ctx, s.sessions, op, repository.Query{Term: entity.ClaimTerm(c), Offset: offset, Limit: limit})
}

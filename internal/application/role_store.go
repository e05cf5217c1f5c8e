package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// RoleStore persists roles the same way UserStore persists users.
type RoleStore struct {
	sessions repository.SessionProvider[*entity.Role]
	options
}

func NewRoleStore(sessions repository.SessionProvider[*entity.Role], opts ...Option) (*RoleStore, error) {
	if sessions == nil {
		return nil, domain.InvalidArgument("NewRoleStore", "sessions")
	}
	return &RoleStore{sessions: sessions, options: buildOptions(opts)}, nil
}

func (s *RoleStore) GetRoleID(r *entity.Role) (string, error) {
	if r == nil {
		return "", domain.InvalidArgument("GetRoleID", "role")
	}
	return r.ID(), nil
}

func (s *RoleStore) GetRoleName(r *entity.Role) (string, error) {
	if r == nil {
		return "", domain.InvalidArgument("GetRoleName", "role")
	}
	return r.Name, nil
}

func (s *RoleStore) SetRoleName(r *entity.Role, name string) error {
	const op = "SetRoleName"
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	if name == "" {
		return domain.InvalidArgument(op, "name")
	}
	r.Name = name
	return nil
}

func (s *RoleStore) GetNormalizedRoleName(r *entity.Role) (string, error) {
	if r == nil {
		return "", domain.InvalidArgument("GetNormalizedRoleName", "role")
	}
	return r.NormalizedName, nil
}

func (s *RoleStore) SetNormalizedRoleName(r *entity.Role, normalizedName string) error {
	const op = "SetNormalizedRoleName"
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	if normalizedName == "" {
		return domain.InvalidArgument(op, "normalizedName")
	}
	r.NormalizedName = normalizedName
	return nil
}

// Create assigns an id through the store and commits the role. When the
// commit fails, an id assigned by this call is cleared again.
func (s *RoleStore) Create(ctx context.Context, r *entity.Role) error {
	const op = "RoleStore.Create"
	if err := s.prepare(op, r); err != nil {
		return err
	}
	now := s.now()
	assigned := r.ID() == ""
	created, updated := r.CreatedAt, r.UpdatedAt
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.Role]) error {
		return sess.Store(ctx, r, s.storeOptions()...)
	})
	if err != nil {
		r.CreatedAt, r.UpdatedAt = created, updated
		if assigned {
			r.ResetUnsavedID()
		}
		s.logger.WithError(err).WithField("role", r.Name).Warn("create role failed")
		return err
	}
	s.logger.WithFields(logrus.Fields{"role_id": r.ID(), "version": r.DocumentVersion()}).Debug("role created")
	s.publish(ctx, EventRoleCreated, r.ID(), r.DocumentVersion())
	return nil
}

func (s *RoleStore) Update(ctx context.Context, r *entity.Role) error {
	const op = "RoleStore.Update"
	if err := s.prepare(op, r); err != nil {
		return err
	}
	updated := r.UpdatedAt
	r.UpdatedAt = s.now()

	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.Role]) error {
		return sess.Store(ctx, r, s.storeOptions()...)
	})
	if err != nil {
		r.UpdatedAt = updated
		s.logger.WithError(err).WithField("role_id", r.ID()).Warn("update role failed")
		return err
	}
	s.logger.WithFields(logrus.Fields{"role_id": r.ID(), "version": r.DocumentVersion()}).Debug("role updated")
	s.publish(ctx, EventRoleUpdated, r.ID(), r.DocumentVersion())
	return nil
}

func (s *RoleStore) Delete(ctx context.Context, r *entity.Role) error {
	const op = "RoleStore.Delete"
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	if r.ID() == "" {
		return domain.InvalidArgument(op, "role id")
	}
	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.Role]) error {
		return sess.Delete(ctx, r.ID())
	})
	if err != nil {
		s.logger.WithError(err).WithField("role_id", r.ID()).Warn("delete role failed")
		return err
	}
	s.logger.WithField("role_id", r.ID()).Debug("role deleted")
	s.publish(ctx, EventRoleDeleted, r.ID(), r.DocumentVersion())
	return nil
}

func (s *RoleStore) FindByID(ctx context.Context, id string) (*entity.Role, error) {
	const op = "RoleStore.FindByID"
	if id == "" {
		return nil, domain.InvalidArgument(op, "id")
	}
	return load(ctx, s.sessions, op, id)
}

func (s *RoleStore) FindByName(ctx context.Context, normalizedName string) (*entity.Role, error) {
	const op = "RoleStore.FindByName"
	if normalizedName == "" {
		return nil, domain.InvalidArgument(op, "normalizedName")
	}
	return queryFirst(ctx, s.sessions, op, entity.NameTerm(normalizedName))
}

func (s *RoleStore) GetClaims(r *entity.Role) ([]Claim, error) {
	if r == nil {
		return nil, domain.InvalidArgument("GetRoleClaims", "role")
	}
	return fromEntityClaims(r.Claims), nil
}

func (s *RoleStore) AddClaim(r *entity.Role, claim Claim) error {
	const op = "AddRoleClaim"
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	c := ToEntityClaim(claim)
	if err := c.Check(op); err != nil {
		return err
	}
	return r.AddClaim(c)
}

// RemoveClaim drops the first claim equal to claim; absent claims are ignored.
func (s *RoleStore) RemoveClaim(r *entity.Role, claim Claim) error {
	const op = "RemoveRoleClaim"
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	c := ToEntityClaim(claim)
	if c.IsZero() {
		return domain.InvalidArgument(op, "claim")
	}
	r.RemoveClaim(c)
	return nil
}

func (s *RoleStore) Close() error { return nil }

func (s *RoleStore) prepare(op string, r *entity.Role) error {
	if r == nil {
		return domain.InvalidArgument(op, "role")
	}
	if r.NormalizedName == "" {
		r.NormalizedName = s.normalize(r.Name)
	}
	if r.Claims == nil {
		r.Claims = []entity.Claim{}
	}
	if err := validate(op, r); err != nil {
		return err
	}
	return r.CheckTerms(op)
}

func (s *RoleStore) storeOptions() []repository.StoreOption {
	if s.concurrencyCheck {
		return []repository.StoreOption{repository.ExpectVersion()}
	}
	return nil
}

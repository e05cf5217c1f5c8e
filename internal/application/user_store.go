package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// UserStore maps user aggregates onto a document store. It holds no session
// between calls: every method that touches the store opens its own. All other
// methods only change the in-memory user; Create and Update persist it.
type UserStore struct {
	sessions repository.SessionProvider[*entity.User]
	options
}

func NewUserStore(sessions repository.SessionProvider[*entity.User], opts ...Option) (*UserStore, error) {
	if sessions == nil {
		return nil, domain.InvalidArgument("NewUserStore", "sessions")
	}
	return &UserStore{sessions: sessions, options: buildOptions(opts)}, nil
}

func (s *UserStore) GetUserID(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetUserID", "user")
	}
	return u.ID(), nil
}

func (s *UserStore) GetUserName(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetUserName", "user")
	}
	return u.UserName, nil
}

func (s *UserStore) SetUserName(u *entity.User, userName string) error {
	const op = "SetUserName"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if userName == "" {
		return domain.InvalidArgument(op, "userName")
	}
	u.UserName = userName
	return nil
}

func (s *UserStore) GetNormalizedUserName(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetNormalizedUserName", "user")
	}
	return u.NormalizedUserName, nil
}

func (s *UserStore) SetNormalizedUserName(u *entity.User, normalizedName string) error {
	const op = "SetNormalizedUserName"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if normalizedName == "" {
		return domain.InvalidArgument(op, "normalizedName")
	}
	u.NormalizedUserName = normalizedName
	return nil
}

// Create assigns an id through the store and commits the user. A missing
// normalized user name is derived with the store's normalizer. When the commit
// fails, an id assigned by this call is cleared again.
func (s *UserStore) Create(ctx context.Context, u *entity.User) error {
	const op = "UserStore.Create"
	if err := s.prepare(op, u); err != nil {
		return err
	}
	now := s.now()
	assigned := u.ID() == ""
	created, updated := u.CreatedAt, u.UpdatedAt
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.User]) error {
		return sess.Store(ctx, u, s.storeOptions()...)
	})
	if err != nil {
		u.CreatedAt, u.UpdatedAt = created, updated
		if assigned {
			u.ResetUnsavedID()
		}
		s.logger.WithError(err).WithField("user_name", u.UserName).Warn("create user failed")
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID(), "version": u.DocumentVersion()}).Debug("user created")
	s.publish(ctx, EventUserCreated, u.ID(), u.DocumentVersion())
	return nil
}

// Update re-stages the whole user. Unless the store was built with
// WithConcurrencyCheck, concurrent updates race and the last commit wins.
func (s *UserStore) Update(ctx context.Context, u *entity.User) error {
	const op = "UserStore.Update"
	if err := s.prepare(op, u); err != nil {
		return err
	}
	updated := u.UpdatedAt
	u.UpdatedAt = s.now()

	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.User]) error {
		return sess.Store(ctx, u, s.storeOptions()...)
	})
	if err != nil {
		u.UpdatedAt = updated
		s.logger.WithError(err).WithField("user_id", u.ID()).Warn("update user failed")
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID(), "version": u.DocumentVersion()}).Debug("user updated")
	s.publish(ctx, EventUserUpdated, u.ID(), u.DocumentVersion())
	return nil
}

// Delete removes the stored user by id. The in-memory user is left as is.
func (s *UserStore) Delete(ctx context.Context, u *entity.User) error {
	const op = "UserStore.Delete"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if u.ID() == "" {
		return domain.InvalidArgument(op, "user id")
	}
	err := commit(ctx, s.sessions, op, func(sess repository.Session[*entity.User]) error {
		return sess.Delete(ctx, u.ID())
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID()).Warn("delete user failed")
		return err
	}
	s.logger.WithField("user_id", u.ID()).Debug("user deleted")
	s.publish(ctx, EventUserDeleted, u.ID(), u.DocumentVersion())
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	const op = "UserStore.FindByID"
	if id == "" {
		return nil, domain.InvalidArgument(op, "id")
	}
	return load(ctx, s.sessions, op, id)
}

// FindByName is an exact match on the normalized user name.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*entity.User, error) {
	const op = "UserStore.FindByName"
	if normalizedUserName == "" {
		return nil, domain.InvalidArgument(op, "normalizedUserName")
	}
	return queryFirst(ctx, s.sessions, op, entity.NameTerm(normalizedUserName))
}

// Close is a no-op; the store holds no resources of its own.
func (s *UserStore) Close() error { return nil }

// prepare runs the checks every write needs before a session is opened.
func (s *UserStore) prepare(op string, u *entity.User) error {
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if u.NormalizedUserName == "" {
		u.NormalizedUserName = s.normalize(u.UserName)
	}
	u.Normalize()
	if err := validate(op, u); err != nil {
		return err
	}
	return u.CheckTerms(op)
}

func (s *UserStore) storeOptions() []repository.StoreOption {
	if s.concurrencyCheck {
		return []repository.StoreOption{repository.ExpectVersion()}
	}
	return nil
}

package application

import (
	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/entity"
)

const errNoPhone = "user has no phone number"

// SetPhoneNumber replaces the phone, dropping any confirmation. An empty
// number removes it.
func (s *UserStore) SetPhoneNumber(u *entity.User, number string) error {
	if u == nil {
		return domain.InvalidArgument("SetPhoneNumber", "user")
	}
	if number == "" {
		u.Phone = nil
		return nil
	}
	u.Phone = entity.NewPhone(number)
	return nil
}

func (s *UserStore) GetPhoneNumber(u *entity.User) (string, error) {
	if u == nil {
		return "", domain.InvalidArgument("GetPhoneNumber", "user")
	}
	if u.Phone == nil {
		return "", nil
	}
	return u.Phone.Number, nil
}

func (s *UserStore) GetPhoneNumberConfirmed(u *entity.User) (bool, error) {
	const op = "GetPhoneNumberConfirmed"
	if u == nil {
		return false, domain.InvalidArgument(op, "user")
	}
	if u.Phone == nil {
		return false, domain.Precondition(op, errNoPhone)
	}
	return u.Phone.IsConfirmed(), nil
}

func (s *UserStore) SetPhoneNumberConfirmed(u *entity.User, confirmed bool) error {
	const op = "SetPhoneNumberConfirmed"
	if u == nil {
		return domain.InvalidArgument(op, "user")
	}
	if u.Phone == nil {
		return domain.Precondition(op, errNoPhone)
	}
	if confirmed {
		t := s.now()
		u.Phone.ConfirmationTime = &t
	} else {
		u.Phone.ConfirmationTime = nil
	}
	return nil
}

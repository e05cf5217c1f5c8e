package entity

import "github.com/oksasatya/go-identity-docstore/internal/domain/repository"

// Users and Roles are the collections the identity stores persist into.
var (
	Users = repository.Collection[*User]{Name: "users", New: func() *User { return &User{} }}
	Roles = repository.Collection[*Role]{Name: "roles", New: func() *Role { return &Role{} }}
)

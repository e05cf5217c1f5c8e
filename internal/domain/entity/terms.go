package entity

import "github.com/oksasatya/go-identity-docstore/internal/domain/repository"

// Index term fields shared by users and roles.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldLogin = "login"
	FieldClaim = "claim"
)

func NameTerm(normalizedName string) repository.Term {
	return repository.NewTerm(FieldName, normalizedName)
}

func EmailTerm(normalizedEmail string) repository.Term {
	return repository.NewTerm(FieldEmail, normalizedEmail)
}

func LoginTerm(provider, key string) repository.Term {
	return repository.NewTerm(FieldLogin, provider, key)
}

func ClaimTerm(c Claim) repository.Term {
	return repository.NewTerm(FieldClaim, c.Type, c.Value)
}

package entity

import (
	"encoding/json"
	"time"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// Role represents an authorization role and the claims granted with it.
type Role struct {
	id      string
	version int64

	Name           string    `json:"name" validate:"required,max=256"`
	NormalizedName string    `json:"normalizedName" validate:"required,max=256"`
	Claims         []Claim   `json:"claims"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func NewRole(name string) (*Role, error) {
	if name == "" {
		return nil, domain.InvalidArgument("NewRole", "name")
	}
	return &Role{Name: name, Claims: []Claim{}}, nil
}

func (r *Role) ID() string { return r.id }

func (r *Role) AddClaim(c Claim) error {
	if err := c.Check("Role.AddClaim"); err != nil {
		return err
	}
	r.Claims = append(r.Claims, c)
	return nil
}

func (r *Role) RemoveClaim(c Claim) {
	r.Claims = removeFirstClaim(r.Claims, c)
}

func (r *Role) ClaimsSnapshot() []Claim {
	return append([]Claim(nil), r.Claims...)
}

// ResetUnsavedID clears an id assigned for a first commit that failed.
func (r *Role) ResetUnsavedID() {
	if r.version == 0 {
		r.id = ""
	}
}

func (r *Role) CheckTerms(op string) error {
	for _, c := range r.Claims {
		if err := c.Check(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Role) DocumentID() string         { return r.id }
func (r *Role) DocumentVersion() int64     { return r.version }
func (r *Role) SetDocumentVersion(v int64) { r.version = v }

func (r *Role) AssignDocumentID(id string) {
	if r.id == "" {
		r.id = id
	}
}

func (r *Role) IndexTerms() []repository.Term {
	terms := make([]repository.Term, 0, 1+len(r.Claims))
	if r.NormalizedName != "" {
		terms = append(terms, NameTerm(r.NormalizedName))
	}
	for _, c := range r.Claims {
		terms = append(terms, ClaimTerm(c))
	}
	return terms
}

func (r *Role) MarshalJSON() ([]byte, error) {
	type alias Role
	return json.Marshal(struct {
		ID      string `json:"id"`
		Version int64  `json:"version"`
		*alias
	}{ID: r.id, Version: r.version, alias: (*alias)(r)})
}

func (r *Role) UnmarshalJSON(b []byte) error {
	type alias Role
	aux := struct {
		ID      string `json:"id"`
		Version int64  `json:"version"`
		*alias
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.id, r.version = aux.ID, aux.Version
	if r.Claims == nil {
		r.Claims = []Claim{}
	}
	return nil
}

var _ repository.Document = (*Role)(nil)

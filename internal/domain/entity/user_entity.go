package entity

import (
	"encoding/json"
	"time"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// User is the aggregate root for an identity: credentials, federated logins,
// claims, contact info and lockout state are persisted as one document.
//
// The id is assigned by the store on first persistence and never changes.
// An empty PasswordHash means no password is set.
type User struct {
	id      string
	version int64

	UserName                    string    `json:"userName" validate:"required,max=256"`
	NormalizedUserName          string    `json:"normalizedUserName" validate:"required,max=256"`
	PasswordHash                string    `json:"passwordHash,omitempty"`
	SecurityStamp               string    `json:"securityStamp,omitempty"`
	UsesTwoFactorAuthentication bool      `json:"usesTwoFactorAuthentication"`
	Email                       *Email    `json:"email,omitempty"`
	Phone                       *Phone    `json:"phone,omitempty"`
	Lockout                     *Lockout  `json:"lockout,omitempty"`
	Logins                      []Login   `json:"logins"`
	Claims                      []Claim   `json:"claims"`
	CreatedAt                   time.Time `json:"createdAt"`
	UpdatedAt                   time.Time `json:"updatedAt"`
}

// NewUser creates an unsaved user. The user name is required.
func NewUser(userName string) (*User, error) {
	if userName == "" {
		return nil, domain.InvalidArgument("NewUser", "userName")
	}
	return &User{UserName: userName, Logins: []Login{}, Claims: []Claim{}}, nil
}

func (u *User) ID() string { return u.id }

// AddLogin appends login unless a login with the same provider and key is
// already linked.
func (u *User) AddLogin(login Login) error {
	const op = "User.AddLogin"
	if err := login.Check(op); err != nil {
		return err
	}
	for _, l := range u.Logins {
		if l.matches(login.LoginProvider, login.ProviderKey) {
			return domain.DuplicateLogin(op, login.LoginProvider, login.ProviderKey)
		}
	}
	u.Logins = append(u.Logins, login)
	return nil
}

// RemoveLogin drops the first login matching provider and key. Unknown
// logins are ignored.
func (u *User) RemoveLogin(provider, key string) {
	for i, l := range u.Logins {
		if l.matches(provider, key) {
			u.Logins = append(u.Logins[:i:i], u.Logins[i+1:]...)
			return
		}
	}
}

// FindLogin returns the login for provider and key, if linked.
func (u *User) FindLogin(provider, key string) (Login, bool) {
	for _, l := range u.Logins {
		if l.matches(provider, key) {
			return l, true
		}
	}
	return Login{}, false
}

// AddClaim appends c. Duplicate claims are allowed.
func (u *User) AddClaim(c Claim) error {
	if err := c.Check("User.AddClaim"); err != nil {
		return err
	}
	u.Claims = append(u.Claims, c)
	return nil
}

// RemoveClaim drops the first claim structurally equal to c.
func (u *User) RemoveClaim(c Claim) {
	u.Claims = removeFirstClaim(u.Claims, c)
}

// Normalize drops optional value objects whose fields are all at defaults,
// so empty placeholders are never persisted.
func (u *User) Normalize() {
	if u.Email != nil && u.Email.IsDefault() {
		u.Email = nil
	}
	if u.Phone != nil && u.Phone.IsDefault() {
		u.Phone = nil
	}
	if u.Lockout != nil && u.Lockout.IsDefault() {
		u.Lockout = nil
	}
}

// LoginsSnapshot returns a copy of the linked logins.
func (u *User) LoginsSnapshot() []Login {
	return append([]Login(nil), u.Logins...)
}

// ClaimsSnapshot returns a copy of the claims.
func (u *User) ClaimsSnapshot() []Claim {
	return append([]Claim(nil), u.Claims...)
}

// ResetUnsavedID clears an id assigned for a first commit that failed.
// Users that were ever committed keep their id.
func (u *User) ResetUnsavedID() {
	if u.version == 0 {
		u.id = ""
	}
}

// CheckTerms verifies that every login and claim can be indexed exactly.
// Collections assigned directly bypass AddLogin and AddClaim.
func (u *User) CheckTerms(op string) error {
	for _, l := range u.Logins {
		if err := l.Check(op); err != nil {
			return err
		}
	}
	for _, c := range u.Claims {
		if err := c.Check(op); err != nil {
			return err
		}
	}
	return nil
}

func (u *User) DocumentID() string         { return u.id }
func (u *User) DocumentVersion() int64     { return u.version }
func (u *User) SetDocumentVersion(v int64) { u.version = v }

// AssignDocumentID sets the id once; later calls are ignored.
func (u *User) AssignDocumentID(id string) {
	if u.id == "" {
		u.id = id
	}
}

func (u *User) IndexTerms() []repository.Term {
	terms := make([]repository.Term, 0, 2+len(u.Logins)+len(u.Claims))
	if u.NormalizedUserName != "" {
		terms = append(terms, NameTerm(u.NormalizedUserName))
	}
	if u.Email != nil && u.Email.NormalizedAddress != "" {
		terms = append(terms, EmailTerm(u.Email.NormalizedAddress))
	}
	for _, l := range u.Logins {
		terms = append(terms, LoginTerm(l.LoginProvider, l.ProviderKey))
	}
	for _, c := range u.Claims {
		terms = append(terms, ClaimTerm(c))
	}
	return terms
}

func (u *User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		ID      string `json:"id"`
		Version int64  `json:"version"`
		*alias
	}{ID: u.id, Version: u.version, alias: (*alias)(u)})
}

func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	aux := struct {
		ID      string `json:"id"`
		Version int64  `json:"version"`
		*alias
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.id, u.version = aux.ID, aux.Version
	if u.Logins == nil {
		u.Logins = []Login{}
	}
	if u.Claims == nil {
		u.Claims = []Claim{}
	}
	return nil
}

var _ repository.Document = (*User)(nil)

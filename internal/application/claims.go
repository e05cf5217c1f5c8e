package application

import "github.com/oksasatya/go-identity-docstore/internal/domain/entity"

// Claim is the claim shape exchanged with callers of the stores. Only Type
// and Value are persisted; issuer metadata is dropped on the way in.
type Claim struct {
	Type      string
	Value     string
	ValueType string
	Issuer    string
}

// ToEntityClaim simplifies c to the persisted (Type, Value) pair.
func ToEntityClaim(c Claim) entity.Claim {
	return entity.NewClaim(c.Type, c.Value)
}

// FromEntityClaim expands a persisted claim for callers.
func FromEntityClaim(c entity.Claim) Claim {
	return Claim{Type: c.Type, Value: c.Value}
}

func fromEntityClaims(claims []entity.Claim) []Claim {
	out := make([]Claim, 0, len(claims))
	for _, c := range claims {
		out = append(out, FromEntityClaim(c))
	}
	return out
}

// toEntityClaims converts claims, failing on the first unset or unindexable one.
func toEntityClaims(op string, claims []Claim) ([]entity.Claim, error) {
	out := make([]entity.Claim, 0, len(claims))
	for _, c := range claims {
		ec := ToEntityClaim(c)
		if err := ec.Check(op); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, nil
}

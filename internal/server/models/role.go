package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/erm/internal/common"
)

// Role is a member of the fixed role set.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// roleRank orders the closed role set. A higher rank satisfies every lower
// requirement.
var roleRank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r meets a requirement of required.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[required]
	return ok && have >= need
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", common.NewValidationError("roles", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// Roles is a set of roles, stored as a JSON array.
type Roles []Role

// Has reports whether any role in rs satisfies required.
func (rs Roles) Has(required Role) bool {
	for _, r := range rs {
		if r.Satisfies(required) {
			return true
		}
	}
	return false
}

// Highest returns the highest-ranked role, or "" for an empty set.
func (rs Roles) Highest() Role {
	var best Role
	for _, r := range rs {
		if roleRank[r] > roleRank[best] {
			best = r
		}
	}
	return best
}

// Validate requires a non-empty subset of the fixed role set.
func (rs Roles) Validate() error {
	if len(rs) == 0 {
		return common.NewValidationError("roles", "at least one role is required")
	}
	for _, r := range rs {
		if !r.Valid() {
			return common.NewValidationError("roles", fmt.Sprintf("unknown role %q", string(r)))
		}
	}
	return nil
}

// Normalize returns the roles deduplicated and ordered by rank, highest first.
func (rs Roles) Normalize() Roles {
	out := make(Roles, 0, len(rs))
	for _, r := range rs {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Role) int { return roleRank[b] - roleRank[a] })
	return out
}

func (rs Roles) Value() (driver.Value, error) {
	if rs == nil {
		rs = Roles{}
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (rs *Roles) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*rs = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Roles", src)
	}
	return json.Unmarshal(data, rs)
}

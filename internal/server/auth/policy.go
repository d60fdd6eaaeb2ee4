package auth

import (
	"fmt"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/server/models"
)

// Operation is an action a principal asks to perform.
type Operation int

const (
	OpCreateUser Operation = iota + 1
	OpListUsers
	OpReadUser
	OpUpdateUser
	OpDeleteUser
	OpCreateProject
	OpListProjects

	OpReadSelf
	OpUpdateSelf
	OpCreateOwnProject
	OpListOwnProjects
)

var operationNames = map[Operation]string{
	OpCreateUser:       "create_user",
	OpListUsers:        "list_users",
	OpReadUser:         "read_user",
	OpUpdateUser:       "update_user",
	OpDeleteUser:       "delete_user",
	OpCreateProject:    "create_project",
	OpListProjects:     "list_projects",
	OpReadSelf:         "read_self",
	OpUpdateSelf:       "update_self",
	OpCreateOwnProject: "create_own_project",
	OpListOwnProjects:  "list_own_projects",
}

func (o Operation) String() string {
	if s, ok := operationNames[o]; ok {
		return s
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// requirement is either a role or the self scope.
type requirement struct {
	role models.Role
	self bool
}

var requirements = map[Operation]requirement{
	OpCreateUser:       {role: models.RoleAdmin},
	OpListUsers:        {role: models.RoleAdmin},
	OpReadUser:         {role: models.RoleAdmin},
	OpUpdateUser:       {role: models.RoleAdmin},
	OpDeleteUser:       {role: models.RoleAdmin},
	OpCreateProject:    {role: models.RoleAdmin},
	OpListProjects:     {role: models.RoleAdmin},
	OpReadSelf:         {self: true},
	OpUpdateSelf:       {self: true},
	OpCreateOwnProject: {self: true},
	OpListOwnProjects:  {self: true},
}

// SelfScoped reports whether op always targets the principal itself.
func (o Operation) SelfScoped() bool {
	return requirements[o].self
}

// Decision is the outcome of Decide.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Decide is the access rule. Admin operations need a role satisfying ADMIN;
// self-scoped operations are allowed for any principal. Unknown operations
// and a nil principal are denied. resourceOwnerID does not influence the
// outcome: admins may target anyone and self operations ignore it.
func Decide(p *models.Principal, op Operation, resourceOwnerID string) Decision {
	if p == nil {
		return Deny
	}
	req, ok := requirements[op]
	if !ok {
		return Deny
	}
	if req.self {
		return Allow
	}
	return Decision(p.Roles.Has(req.role))
}

// Authorize applies Decide and returns the owner id the operation must act
// on: the principal's own id for self-scoped operations, resourceOwnerID
// otherwise. A nil principal yields ErrorUnauthorized and a denial yields
// ErrorForbidden.
func Authorize(p *models.Principal, op Operation, resourceOwnerID string) (string, error) {
	if p == nil {
		return "", common.ErrorUnauthorized
	}
	if Decide(p, op, resourceOwnerID) == Deny {
		return "", common.ErrorForbidden
	}
	if op.SelfScoped() {
		return p.ID, nil
	}
	return resourceOwnerID, nil
}

// CheckRoleAssignment guards self updates: a principal may only assign
// roles at or below its own highest role.
func CheckRoleAssignment(p *models.Principal, roles models.Roles) error {
	if p == nil {
		return common.ErrorUnauthorized
	}
	top := p.Roles.Highest()
	for _, r := range roles {
		if !top.Satisfies(r) {
			return common.ErrorForbidden
		}
	}
	return nil
}

package model

// Role is the fixed user hierarchy. MASTER is the platform operator and the only
// role allowed to exist without a company.
type Role string

const (
	RoleMaster   Role = "MASTER"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "gerente"
	RoleOperator Role = "operador"
)

var roleRank = map[Role]int{
	RoleOperator: 1,
	RoleManager:  2,
	RoleAdmin:    3,
	RoleMaster:   4,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsPlatform is true for roles that are not tied to a tenant.
func (r Role) IsPlatform() bool {
	return r == RoleMaster
}

// AtLeast compares positions in the hierarchy.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

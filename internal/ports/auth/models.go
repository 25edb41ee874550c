package auth

// Role es el rol que entrega el colaborador de identidad.
// El core confía en este valor; no re-autentica.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

// IsStaff cubre staff y admin.
func (c Claims) IsStaff() bool {
	return c.Role == RoleStaff || c.Role == RoleAdmin
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

package domain

// Staff roles. Every role-gated page also admits ADMIN.
const (
	RoleReception  = "RECEPTION"
	RoleTechnician = "TECHNICIAN"
	RoleCashier    = "CASHIER"
	RoleAdmin      = "ADMIN"
)

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

func (u *User) UserRole() string { return u.Role }

// CanAct reports whether the user may use a role-gated area.
func (u *User) CanAct(role string) bool {
	return u.Role == role || u.Role == RoleAdmin
}

package types

// UserRole represents the dashboard roles in the system
type UserRole string

const (
	RoleReceptionist UserRole = "receptionist"
	RoleNurse        UserRole = "nurse"
	RoleDoctor       UserRole = "doctor"
	RolePharmacist   UserRole = "pharmacist"
	RoleAccountant   UserRole = "accountant"
	RoleSuperAdmin   UserRole = "super_admin"
)

// User represents an authenticated staff member
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	Role      UserRole `json:"role"`
}

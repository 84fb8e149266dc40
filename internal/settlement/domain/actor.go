package domain

// Actor is the authenticated staff user performing an operation. The gateway
// validates the token and forwards identity headers; the core trusts them.
type Actor struct {
	ID          uint
	Username    string
	Role        string
	Permissions []string
}

// Roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Permissions
const (
	PermGoodwillRefund = "payments.refund.goodwill"
	PermFinanceReadAll = "finance.read.all"
)

// HasPermission reports whether the actor carries the named permission.
func (a Actor) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Privileged reports whether the actor may see finances beyond their own
// open shift.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager || a.HasPermission(PermFinanceReadAll)
}

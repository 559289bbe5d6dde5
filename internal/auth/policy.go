package auth

import "ecommerce-service/internal/domain"

// Action names a privileged operation gated by role. Handlers ask IsAllowed
// instead of comparing role strings inline.
type Action string

const (
	ActionCatalogWrite  Action = "catalog:write"  // create/update products and categories
	ActionCatalogDelete Action = "catalog:delete" // delete products and categories
	ActionOrderViewAll  Action = "order:view_all" // list/read any user's orders
	ActionOrderSetState Action = "order:set_status"
	ActionOrderDelete   Action = "order:delete"
	ActionUserAdmin     Action = "user:admin" // list users, change roles
)

// rolePermissions is the {role} x {action} authorization matrix. Customers
// hold no privileged actions; their access (own orders, own profile) is
// ownership-checked in the handlers instead.
var rolePermissions = map[domain.Role]map[Action]bool{
	domain.RoleAdmin: {
		ActionCatalogWrite:  true,
		ActionCatalogDelete: true,
		ActionOrderViewAll:  true,
		ActionOrderSetState: true,
		ActionOrderDelete:   true,
		ActionUserAdmin:     true,
	},
	domain.RoleManager: {
		ActionCatalogWrite:  true,
		ActionOrderViewAll:  true,
		ActionOrderSetState: true,
	},
	domain.RoleCustomer: {},
}

// IsAllowed reports whether role may perform action. Unknown roles and unknown
// actions are both denied.
func IsAllowed(role domain.Role, action Action) bool {
	return rolePermissions[role][action]
}

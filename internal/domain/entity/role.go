package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDAdmin  = 1
	RoleIDDoctor = 2
	RoleIDNurse  = 3
	RoleIDUser   = 4
)

// RoleNames constants
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleUser   = "user"
)

// DefaultRoles is the fixed role set seeded at startup.
var DefaultRoles = []Role{
	{ID: RoleIDAdmin, RoleName: RoleAdmin, Description: "Full access including user administration"},
	{ID: RoleIDDoctor, RoleName: RoleDoctor, Description: "Add and edit members"},
	{ID: RoleIDNurse, RoleName: RoleNurse, Description: "Edit members"},
	{ID: RoleIDUser, RoleName: RoleUser, Description: "Read-only access"},
}

// RoleIDByName returns the ID of a known role name.
func RoleIDByName(name string) (int, bool) {
	for _, r := range DefaultRoles {
		if r.RoleName == name {
			return r.ID, true
		}
	}
	return 0, false
}

// RoleNameByID returns the name of a known role ID.
func RoleNameByID(id int) string {
	for _, r := range DefaultRoles {
		if r.ID == id {
			return r.RoleName
		}
	}
	return ""
}

// Role groups used by permission checks.
var (
	MemberCreatorRoles = []int{RoleIDAdmin, RoleIDDoctor}
	MemberEditorRoles  = []int{RoleIDAdmin, RoleIDDoctor, RoleIDNurse}
	MemberDeleterRoles = []int{RoleIDAdmin}
)

func CanAddMembers(roleID int) bool    { return hasRole(MemberCreatorRoles, roleID) }
func CanEditMembers(roleID int) bool   { return hasRole(MemberEditorRoles, roleID) }
func CanDeleteMembers(roleID int) bool { return hasRole(MemberDeleterRoles, roleID) }

func hasRole(allowed []int, roleID int) bool {
	for _, id := range allowed {
		if id == roleID {
			return true
		}
	}
	return false
}

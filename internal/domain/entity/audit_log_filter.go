package entity

// AuditLogFilter narrows an audit log listing. Empty fields match
// everything.
type AuditLogFilter struct {
	Action   string // exact action, or a prefix ending in "." such as "member."
	Entity   string // member, doctor, medication, diagnosis, medical_file, user
	EntityID string // public member ID, file ID or user ID
	UserID   string // acting user
}

package auth

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleCoach Role = "coach"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

type Permission string

const (
	PermEventsCreate  Permission = "events:create"
	PermEventsRead    Permission = "events:read"
	PermEventsReadOwn Permission = "events:read:own"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleAdmin: {PermEventsCreate: true, PermEventsRead: true, PermEventsReadOwn: true},
	RoleStaff: {PermEventsCreate: true, PermEventsReadOwn: true},
	RoleCoach: {PermEventsReadOwn: true},
	RoleUser:  {PermEventsReadOwn: true},
	RoleGuest: {},
}

// Can reports whether the role is granted permission. Unknown roles get nothing.
func (r Role) Can(permission Permission) bool {
	return rolePermissions[r][permission]
}

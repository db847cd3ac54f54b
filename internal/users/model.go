package users

import "time"

// Role identifies the user category carried in the identity provider's custom claims.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleResident  Role = "RESIDENT"
	RoleService   Role = "SERVICE"
	RoleEmployee  Role = "EMPLOYEE"
	RoleAnalyst   Role = "ANALYST"
)

// Status is the lifecycle state carried in the identity provider's custom claims.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBanned  Status = "BANNED"
	StatusDeleted Status = "DELETED"
)

// ParseRole returns the role for a claim string, or false when unknown.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleModerator, RoleResident, RoleService, RoleEmployee, RoleAnalyst:
		return Role(value), true
	}
	return "", false
}

// ParseStatus returns the status for a claim string, or false when unknown.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusActive, StatusBanned, StatusDeleted:
		return Status(value), true
	}
	return "", false
}

// Account holds the fields every identity-backed user kind shares. The
// identity provider owns them; the document store never duplicates them
// except the query-only status copy.
type Account struct {
	UID         string
	Email       string
	Password    string // write-only: set on create and password changes, never read back
	PhoneNumber string
	PhotoURL    string
	Role        Role
	Status      Status
	CreatedAt   time.Time
}

// Resident is a citizen reporting issues.
type Resident struct {
	Account
	FirstName string
	LastName  string
}

// Service is a municipal service organization that owns departments and employees.
type Service struct {
	Account
	Name        string
	Description string
	Address     string
}

// Employee works for a service inside one of its departments.
type Employee struct {
	Account
	FirstName     string
	LastName      string
	ServiceUID    string
	DepartmentUID string
}

// Moderator administers the user directory.
type Moderator struct {
	Account
}

// Analyst consumes aggregate views of services and issues.
type Analyst struct {
	Account
	Name        string
	Description string
}

// Department is the only kind without an identity record: it exists purely
// as a document owned by a service.
type Department struct {
	UID         string
	Name        string
	Description string
	Address     string
	PhoneNumber string
	Categories  []int64
	ServiceUID  string
	CreatedAt   time.Time
}

package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/edulane/lms/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleFaculty, RoleStudent}

	// ImportRoles are the roles that can be bulk uploaded.
	ImportRoles = []string{RoleFaculty, RoleStudent}

	// fallbacks of bulk uploaded rows
	DefaultName   = "Unknown"
	DefaultBranch = "CSE"
)

// IsRole reports whether role is one of AllRoles.
func IsRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"` // login ID: roll number, employee ID...
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	Branch       string    `json:"branch,omitempty"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsFaculty() bool { return u.Role == RoleFaculty }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
// The configured default password is used when Password is empty.
type NewUser struct {
	UserID   string `json:"userId" validate:"required,max=64,loginid"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Role     string `json:"role" validate:"required,oneof=admin faculty student"`
	Branch   string `json:"branch" validate:"max=64"`
	Password string `json:"password"`
}

func (nu *NewUser) Clean() {
	nu.UserID = core.CleanString(nu.UserID)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Branch = core.CleanString(nu.Branch)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Blank fields are left unchanged.
type UpdateUser struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=admin faculty student"`
	Branch   string `json:"branch" validate:"max=64"`
	IsActive *bool  `json:"isActive"`
	Password string `json:"password"`

	// used by the password policy
	userID string
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	uu.Name = core.StringOr(uu.Name, origUsr.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Email == "" {
		uu.Email = origUsr.Email
	}
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	if uu.Role == "" {
		uu.Role = origUsr.Role
	}
	uu.Branch = core.StringOr(uu.Branch, origUsr.Branch)
	uu.userID = origUsr.UserID
	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search        string   // case-insensitive match on name, login ID or email
	Roles         []string // any of
	Branch        string
	IsActive      *bool
	ExcludeAdmins bool
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Branch = core.CleanString(qf.Branch)
	roles := qf.Roles[:0]
	for _, role := range qf.Roles {
		if role = core.CleanString(role, true /* lower */); IsRole(role) {
			roles = append(roles, role)
		}
	}
	qf.Roles = roles
}

// Match reports whether usr satisfies all the filter's conditions.
func (qf QueryFilter) Match(usr User) bool {
	if qf.ExcludeAdmins && usr.IsAdmin() {
		return false
	}
	if len(qf.Roles) > 0 {
		var ok bool
		for _, role := range qf.Roles {
			if usr.Role == role {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if qf.Branch != "" && !strings.EqualFold(usr.Branch, qf.Branch) {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if qf.Search != "" {
		return containsFold(usr.Name, qf.Search) || containsFold(usr.UserID, qf.Search) || containsFold(usr.Email, qf.Search)
	}
	return true
}

// ImportReport is the outcome of a bulk upload.
type ImportReport struct {
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
	Users   []User     `json:"-"`
}

type RowError struct {
	Row    int               `json:"row"` // 1-based, header excluded
	UserID string            `json:"userId,omitempty"`
	Errors map[string]string `json:"errors"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

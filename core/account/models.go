package account

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/scolarite/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

type Account struct {
	ID           int
	Name         string
	Matricule    string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time // UTC
	UpdatedAt    time.Time // UTC
}

// maxPasswordBytes is the longest input bcrypt hashes.
const maxPasswordBytes = 72

var errPasswordTooLong = fmt.Sprintf("le mot de passe ne doit pas dépasser %d octets", maxPasswordBytes)

// SetPassword hashes pwd. A password bcrypt cannot hash is a *core.ValidationError on the password field.
func (a *Account) SetPassword(pwd string) error {
	if len(pwd) > maxPasswordBytes {
		return core.NewValidationError(bcrypt.ErrPasswordTooLong, core.FieldError{Field: "password", Error: errPasswordTooLong})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Account) IsStudent() bool {
	return a.Role == RoleStudent
}

// FormatMatricule builds a student's login code, eg: "24G" + 7 -> "24G007".
func FormatMatricule(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// NewStudent contains information needed to provision a new student Account.
type NewStudent struct {
	Name     string `form:"nom" validate:"notblank"`
	Password string `form:"password" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing student Account.
// Both fields are overwritten.
type UpdateStudent struct {
	Name     string `form:"nom" validate:"notblank"`
	Password string `form:"password" validate:"required"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}

// Credentials are typed in a login form.
type Credentials struct {
	Matricule string `form:"matricule" validate:"notblank"`
	Password  string `form:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Matricule = core.CleanString(c.Matricule)
	return validate.Struct(c)
}

// GetFilter selects a single Account; zero fields are ignored.
type GetFilter struct {
	ID        int
	Matricule string
	Role      Role
}

type QueryFilter struct {
	Role Role
}

package admin

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecrmi/institute/core"
)

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// UpdateSettings is the self-service email/password change; the current
// password is always required.
type UpdateSettings struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	Email              string `json:"email" validate:"omitempty,email"`
	NewPassword        string `json:"new_password" validate:"omitempty,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required_with=NewPassword,eqfield=NewPassword"`
}

func (us *UpdateSettings) Validate() error {
	us.Email = core.CleanString(us.Email, true /* lower */)
	return core.Validate.Struct(us)
}

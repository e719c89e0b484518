package http

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

// Password length bounds applied wherever a password is chosen.
const (
	passwordMinLen = 8
	passwordMaxLen = 128
)

func validateLogin(r identitysdk.LoginRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func validateForgotPassword(r identitysdk.ForgotPasswordRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func validateResetPassword(r identitysdk.ResetPasswordRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
	)
}

func validateVerifyEmail(r identitysdk.VerifyEmailRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func validateInviteCreate(r identitysdk.InviteCreateRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required, validation.In("ADMIN", "MANAGER")),
	)
}

func validateInviteAccept(r identitysdk.InviteAcceptRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
	)
}

func validateUpdateRole(r identitysdk.UpdateRoleRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In("ADMIN", "MANAGER")),
	)
}

func validateBootstrap(r identitysdk.BootstrapRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
	)
}

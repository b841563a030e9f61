package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/aissist/aissist/core"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (prr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	prr.Email = core.CleanString(prr.Email, true /* lower */)
	return validate.Struct(prr)
}

type JoinRoomRequest struct {
	Password string `json:"password"`
}

type CompleteTaskRequest struct {
	Completed bool `json:"completed"`
}

type SuccessResponse struct {
	Success string `json:"success"`
}

package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidArgument 请求参数校验失败
	ErrInvalidArgument = errors.New("invalid argument")

	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentIDTaken     = errors.New("student ID already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("profile not found")

	ErrClubNotFound    = errors.New("club not found")
	ErrNotMember       = errors.New("you are not a member of this club")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrMessageTooLong  = errors.New("message content is too long")
	ErrRateLimited     = errors.New("sending messages too fast")

	ErrForbiddenTopic = errors.New("not allowed to subscribe to this topic")

	ErrInvalidAttendanceCode = errors.New("invalid attendance code")
	ErrAttendanceCodeExpired = errors.New("attendance code expired")
	ErrAlreadyCheckedIn      = errors.New("already checked in with this code")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// 校验请求结构体，失败时包装为 ErrInvalidArgument
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Join(ErrInvalidArgument, err)
	}
	return nil
}

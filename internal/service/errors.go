package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User-facing messages. The browser client shows them verbatim.
const (
	msgAllFieldsRequired   = "Все поля обязательны"
	msgUsernameTooShort    = "Имя пользователя должно быть не менее 3 символов"
	msgPasswordTooShort    = "Пароль должен быть не менее 6 символов"
	msgInvalidEmail        = "Некорректный email"
	msgUsernameTaken       = "Пользователь с таким именем уже существует"
	msgEmailTaken          = "Пользователь с таким email уже существует"
	msgCredentialsRequired = "Логин и пароль обязательны"
	msgInvalidCredentials  = "Неверный логин или пароль"
	msgAuthRequired        = "Требуется авторизация"
	msgInvalidToken        = "Неверный токен"
	msgUserNotFound        = "Пользователь не найден"
	msgNoteNotFound        = "Заметка не найдена"
	msgTitleContentNeeded  = "Заголовок и содержимое обязательны"
	msgInvalidRefreshToken = "Неверный токен обновления"
)

// ValidationError reports malformed or missing input. Fields marks which
// request fields were missing, when that is known.
type ValidationError struct {
	Message string
	Fields  map[string]bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError reports a duplicate username or email.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AuthError covers bad credentials and missing, invalid or expired tokens.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned both for absent resources and for resources
// owned by another user.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// registerValidationError maps validator failures on a RegisterRequest to the
// first matching message: missing fields win over length and format checks.
func registerValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}

	missing := map[string]bool{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing[strings.ToLower(fe.Field())] = true
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: msgAllFieldsRequired, Fields: missing}
	}

	for _, field := range []string{"Username", "Password", "Email"} {
		for _, fe := range verrs {
			if fe.Field() != field {
				continue
			}
			switch field {
			case "Username":
				return &ValidationError{Message: msgUsernameTooShort}
			case "Password":
				return &ValidationError{Message: msgPasswordTooShort}
			case "Email":
				return &ValidationError{Message: msgInvalidEmail}
			}
		}
	}

	return &ValidationError{Message: verrs.Error()}
}

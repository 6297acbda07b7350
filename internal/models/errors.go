package models

import "errors"

// Kind — тип доменной ошибки сервиса идентификации.
type Kind string

// Виды доменных ошибок.
const (
	KindInvalidUsername      Kind = "InvalidUsername"
	KindInvalidEmail         Kind = "InvalidEmail"
	KindInvalidPassword      Kind = "InvalidPassword"
	KindInvalidFullName      Kind = "InvalidFullName"
	KindInvalidBirthdate     Kind = "InvalidBirthdate"
	KindInvalidCountry       Kind = "InvalidCountry"
	KindUsernameTaken        Kind = "UsernameTaken"
	KindEmailTaken           Kind = "EmailTaken"
	KindAccountNotFound      Kind = "AccountNotFound"
	KindAuthenticationFailed Kind = "AuthenticationFailed"
	KindValidationFailed     Kind = "ValidationFailed"
	KindRegistrationClosed   Kind = "RegistrationClosed"
	KindInternal             Kind = "Internal"
)

// Error — доменная ошибка с типом. Значения-сентинелы ниже сравниваются через errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	ErrInvalidUsername      = &Error{Kind: KindInvalidUsername, Msg: "invalid username"}
	ErrInvalidEmail         = &Error{Kind: KindInvalidEmail, Msg: "invalid email"}
	ErrInvalidPassword      = &Error{Kind: KindInvalidPassword, Msg: "invalid password"}
	ErrInvalidFullName      = &Error{Kind: KindInvalidFullName, Msg: "invalid full name"}
	ErrInvalidBirthdate     = &Error{Kind: KindInvalidBirthdate, Msg: "invalid birthdate"}
	ErrInvalidCountry       = &Error{Kind: KindInvalidCountry, Msg: "invalid country"}
	ErrUsernameTaken        = &Error{Kind: KindUsernameTaken, Msg: "username already taken"}
	ErrEmailTaken           = &Error{Kind: KindEmailTaken, Msg: "email already taken"}
	ErrAccountNotFound      = &Error{Kind: KindAccountNotFound, Msg: "account not found"}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed, Msg: "authentication failed"}
	ErrValidationFailed     = &Error{Kind: KindValidationFailed, Msg: "validation failed"}
	ErrRegistrationClosed   = &Error{Kind: KindRegistrationClosed, Msg: "registration is closed"}
)

// KindOf возвращает тип первой доменной ошибки в цепочке err.
// Для ошибок инфраструктуры возвращается KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldKind возвращает тип ошибки поля, обёрнутой в ErrValidationFailed.
// Если err не содержит ошибки поля, возвращается KindOf(err).
func FieldKind(err error) Kind {
	for _, fe := range []*Error{
		ErrInvalidUsername, ErrInvalidEmail, ErrInvalidPassword,
		ErrInvalidFullName, ErrInvalidBirthdate, ErrInvalidCountry,
	} {
		if errors.Is(err, fe) {
			return fe.Kind
		}
	}
	return KindOf(err)
}

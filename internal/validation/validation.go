// Package validation проверяет входные данные учётной записи до любых изменений в хранилище.
//
// Проверки построены на go-playground/validator с собственными тегами
// username, fullname, birthdate и country_alpha2. Функции пакета не имеют
// побочных эффектов и возвращают сентинелы из пакета models.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/magabrotheeeer/identity-service/internal/models"
)

const (
	usernameMaxLen = 16
	fullNameMaxLen = 256
)

var usernamePattern = regexp.MustCompile(`^[-_.]?([[:alnum:]]+[-_.]?)+$`)

// now подменяется в тестах.
var now = time.Now

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	for tag, fn := range map[string]validator.Func{
		"username":       isUsername,
		"fullname":       isFullName,
		"birthdate":      isBirthdate,
		"country_alpha2": isCountry,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

func isUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	n := utf8.RuneCountInString(s)
	if n < 1 || n > usernameMaxLen {
		return false
	}
	if !usernamePattern.MatchString(s) {
		return false
	}
	_, err := uuid.Parse(s)
	return err != nil
}

func isFullName(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if !utf8.ValidString(raw) || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return false
	}
	s := strings.TrimSpace(raw)
	return s != "" && utf8.RuneCountInString(s) <= fullNameMaxLen
}

func isBirthdate(fl validator.FieldLevel) bool {
	_, err := ParseBirthdate(fl.Field().String())
	return err == nil
}

func isCountry(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2 || !isUpperASCII(s[0]) || !isUpperASCII(s[1]) {
		return false
	}
	region, err := language.ParseRegion(s)
	if err != nil || region.String() != s {
		return false
	}
	_, assigned := assignedAlpha2[s]
	return assigned
}

func isUpperASCII(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// ParseBirthdate разбирает дату рождения в формате YYYY-MM-DD.
// Дата из будущего (по UTC) считается ошибкой.
func ParseBirthdate(s string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, models.ErrInvalidBirthdate
	}
	today := now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return time.Time{}, models.ErrInvalidBirthdate
	}
	return date, nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(s string) error {
	return check(s, "username", models.ErrInvalidUsername)
}

// ValidateEmail проверяет адрес электронной почты.
func ValidateEmail(s string) error {
	return check(s, "min=5,max=256,email", models.ErrInvalidEmail)
}

// ValidatePassword проверяет длину пароля.
func ValidatePassword(s string) error {
	return check(s, "min=6,max=128", models.ErrInvalidPassword)
}

// ValidateFullName проверяет полное имя.
func ValidateFullName(s string) error {
	return check(s, "fullname", models.ErrInvalidFullName)
}

// ValidateBirthdate проверяет дату рождения.
func ValidateBirthdate(s string) error {
	return check(s, "birthdate", models.ErrInvalidBirthdate)
}

// ValidateCountry проверяет двухбуквенный код страны ISO 3166-1.
func ValidateCountry(s string) error {
	return check(s, "country_alpha2", models.ErrInvalidCountry)
}

// ValidateCreate возвращает первое нарушение в порядке:
// имя пользователя, email, пароль, полное имя, дата рождения, страна.
func ValidateCreate(in models.CreateAccountInput) error {
	return first(validate.Struct(in))
}

// ValidateProfileUpdate возвращает первое нарушение в порядке:
// полное имя, дата рождения, страна.
func ValidateProfileUpdate(in models.ProfileInput) error {
	return first(validate.Struct(in))
}

var fieldErrors = map[string]error{
	"Username":  models.ErrInvalidUsername,
	"Email":     models.ErrInvalidEmail,
	"Password":  models.ErrInvalidPassword,
	"FullName":  models.ErrInvalidFullName,
	"Birthdate": models.ErrInvalidBirthdate,
	"Country":   models.ErrInvalidCountry,
}

func first(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	if mapped, ok := fieldErrors[errs[0].StructField()]; ok {
		return mapped
	}
	return err
}

func check(s, tag string, fail error) error {
	if err := validate.Var(s, tag); err != nil {
		return fail
	}
	return nil
}

// Package models содержит доменные типы сервиса идентификации:
// учётную запись, входные данные операций и типизированные ошибки.
package models

import (
	"strings"
	"time"
	"unicode"
)

// DateLayout — формат даты рождения (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DefaultLanguageCode — язык новой учётной записи.
const DefaultLanguageCode = "en"

// Account описывает учётную запись пользователя.
type Account struct {
	ID             string
	Username       string
	Email          string
	CredentialHash string
	FullName       string
	DisplayName    string
	Birthdate      time.Time
	CountryAlpha2  string
	LanguageCode   string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Profile — изменяемая часть учётной записи.
type Profile struct {
	FullName      string
	DisplayName   string
	Birthdate     time.Time
	CountryAlpha2 string
}

// CreateAccountInput — сырые данные для создания учётной записи.
// Порядок полей совпадает с порядком проверки.
type CreateAccountInput struct {
	Username  string `json:"username" validate:"username"`
	Email     string `json:"email" validate:"min=5,max=256,email"`
	Password  string `json:"password" validate:"min=6,max=128"`
	FullName  string `json:"full_name" validate:"fullname"`
	Birthdate string `json:"birthdate" validate:"birthdate"`
	Country   string `json:"country" validate:"country_alpha2"`
}

// ProfileInput — сырые данные для обновления профиля.
type ProfileInput struct {
	FullName  string `json:"full_name" validate:"fullname"`
	Birthdate string `json:"birthdate" validate:"birthdate"`
	Country   string `json:"country" validate:"country_alpha2"`
}

// AuthenticatedSubject — результат успешной аутентификации. Не сохраняется.
type AuthenticatedSubject struct {
	AccountID string `json:"account_id"`
}

// AccountSummary — внешнее представление учётной записи без хеша пароля.
type AccountSummary struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name"`
	Initials      string     `json:"initials"`
	FullName      string     `json:"full_name"`
	Birthdate     string     `json:"birthdate"`
	LanguageCode  string     `json:"language_code"`
	CountryAlpha2 string     `json:"country_alpha2"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Summary формирует внешнее представление учётной записи.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		Initials:      Initials(a.DisplayName),
		FullName:      a.FullName,
		Birthdate:     a.Birthdate.Format(DateLayout),
		LanguageCode:  a.LanguageCode,
		CountryAlpha2: a.CountryAlpha2,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// DisplayName возвращает первое слово полного имени.
func DisplayName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initials возвращает первые буквы слов имени в верхнем регистре.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Package response формирует единый JSON-формат ответов HTTP-обработчиков
// и сопоставляет доменные ошибки с HTTP-статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

// Response — стандартная структура JSON-ответа.
// Code содержит тип доменной ошибки, если его можно раскрыть клиенту.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"Failed to create user"`
	Code   string `json:"code,omitempty" example:"UsernameTaken"`
}

const (
	// StatusOK — статус успешного ответа.
	StatusOK = "OK"
	// StatusError — статус ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с сообщением об ошибке.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// Failure строит ответ и HTTP-статус для ошибки фасада.
// Для внутренних ошибок тип не раскрывается.
func Failure(err error) (int, Response) {
	msg := "internal error"
	var f *identity.Failure
	if errors.As(err, &f) {
		msg = f.Message
	}

	kind := models.KindOf(err)
	resp := Error(msg)
	if kind != models.KindInternal {
		resp.Code = string(models.FieldKind(err))
	}
	return StatusFor(kind), resp
}

// StatusFor возвращает HTTP-статус для типа доменной ошибки.
func StatusFor(kind models.Kind) int {
	switch kind {
	case models.KindInvalidUsername, models.KindInvalidEmail, models.KindInvalidPassword,
		models.KindInvalidFullName, models.KindInvalidBirthdate, models.KindInvalidCountry,
		models.KindValidationFailed:
		return http.StatusUnprocessableEntity
	case models.KindUsernameTaken, models.KindEmailTaken:
		return http.StatusConflict
	case models.KindAuthenticationFailed:
		return http.StatusUnauthorized
	case models.KindAccountNotFound:
		return http.StatusNotFound
	case models.KindRegistrationClosed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError формирует ответ по ошибкам валидатора запроса.
func ValidationError(errs validator.ValidationErrors) Response {
	var msgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
	}
}

// Package available сообщает, принимает ли сервис новые регистрации.
package available

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/identity-service/internal/http/response"
)

// Service проверяет лимит регистраций.
type Service interface {
	CanRegister(ctx context.Context) bool
}

// Handler обрабатывает GET /register/available.
type Handler struct {
	service Service
}

// New создаёт Handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP godoc
// @Summary Доступность регистрации
// @Description Возвращает false, если достигнут лимит учётных записей.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /register/available [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"available": h.service.CanRegister(r.Context()),
	}))
}

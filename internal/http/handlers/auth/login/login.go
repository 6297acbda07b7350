// Package login реализует HTTP-обработчик входа по имени пользователя или email.
//
// При успешной аутентификации возвращается токен сессии. Несуществующая
// учётная запись и неверный пароль дают один и тот же ответ 401.
package login

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/identity-service/internal/http/response"
	"github.com/magabrotheeeer/identity-service/internal/lib/sl"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

// Request — учётные данные. Identifier — имя пользователя или email.
type Request struct {
	Identifier string `json:"identifier" validate:"required,max=256"`
	Password   string `json:"password" validate:"required,max=256"`
}

// Handler обрабатывает POST /login.
type Handler struct {
	log      *slog.Logger
	service  Service
	tokens   TokenIssuer
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, tokens TokenIssuer) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по имени или email и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "User authenticated successfully"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		status, resp := response.Failure(err)
		log.Info("login failed", slog.Int("status", status))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	token, err := h.tokens.GenerateToken(res.Subject.AccountID, res.Account.Username)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(identity.MsgAuthenticationFailed))
		return
	}

	log.Info("login success", slog.String("account_id", res.Subject.AccountID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":      token,
		"account_id": res.Subject.AccountID,
		"username":   res.Account.Username,
		"message":    res.Message,
	}))
}

// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Data: данные ответа, null если данных нет.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorResponse: структура ошибки, также используется в аннотациях @Failure.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"Error interno del servidor"`
}

const (
	// StatusOK: значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError: значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Тексты ошибок, которые видит клиент.
const (
	MsgInternal     = "Error interno del servidor"
	MsgUnauthorized = "No autorizado"
	MsgForbidden    = "Acceso denegado"
	MsgNotFound     = "No encontrado"
	MsgBadRequest   = "Solicitud inválida"
	MsgBlocked      = "La cuenta está bloqueada"
	MsgTooMany      = "Demasiadas solicitudes"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// Fail записывает ошибку с HTTP статусом code.
func Fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, Error(msg))
}

// FromError сопоставляет ошибку бизнес‑логики HTTP статусу и сообщению.
// Неизвестные ошибки превращаются в 500 без раскрытия причины.
func FromError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, services.ErrBlocked):
		return http.StatusForbidden, MsgBlocked
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Credenciales inválidas"
	case errors.Is(err, services.ErrInvalidTarget):
		return http.StatusBadRequest, "El usuario destinatario no existe"
	case errors.Is(err, services.ErrHasResponses):
		return http.StatusBadRequest, "No se puede editar una observación con respuestas"
	case errors.Is(err, services.ErrAlreadyReviewed):
		return http.StatusConflict, "La solicitud ya fue revisada"
	case errors.Is(err, services.ErrInvalidVideoURL):
		return http.StatusBadRequest, "La URL de YouTube no es válida"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, MsgBadRequest
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// FailWithError записывает ответ для ошибки бизнес‑логики.
func FailWithError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := FromError(err)
	Fail(w, r, code, msg)
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s es obligatorio", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s debe ser un UUID válido", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s debe ser un correo electrónico válido", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s debe ser uno de [%s]", err.Field(), err.Param()))
		case "min", "max", "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s está fuera de rango", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("El campo %s no es válido", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

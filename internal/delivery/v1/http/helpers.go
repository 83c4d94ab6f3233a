package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// Response описывает общий конверт ответа: {success, message} при ошибке и {success, data} при успехе.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewErrorResponse(message string) *Response {
	return &Response{Success: false, Message: message}
}

func NewSuccessResponse(data any) *Response {
	return &Response{Success: true, Data: data}
}

// StatusOf отображает класс ошибки в HTTP-статус.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, e.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, e.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError пишет конверт с success=false. Для внутренних ошибок детали наружу не отдаются.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusOf(err), NewErrorResponse(e.Message(err)))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, NewSuccessResponse(data))
}

func writeJSON(w http.ResponseWriter, status int, body *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

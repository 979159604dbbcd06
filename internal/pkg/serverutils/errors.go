package serverutils

import "net/http"

// AppError is an error that already knows its HTTP status.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}

func Unprocessable(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message)
}

func BadGateway(message string) *AppError {
	return NewAppError(http.StatusBadGateway, message)
}

func GatewayTimeout(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message)
}

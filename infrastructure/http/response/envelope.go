package response

import (
	"encoding/json"
	"errors"
	"net/http"

	apperr "github.com/Subrata270/studio-sub001/domain/error"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorBody is the data of a failed response carrying an application error
type ErrorBody struct {
	Code    apperr.ErrorCode `json:"code"`
	Details string           `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	envelope := Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, true, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, false, message, nil)
}

// WriteError renders err with the status its code maps to. Internal causes
// are never echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.GetHTTPStatusCode(err)
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code == apperr.ErrCodeInternal {
		WriteJSON(w, status, false, apperr.ErrInternal.Message, ErrorBody{Code: apperr.ErrCodeInternal})
		return
	}
	WriteJSON(w, status, false, appErr.Message, ErrorBody{Code: appErr.Code, Details: appErr.Details})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

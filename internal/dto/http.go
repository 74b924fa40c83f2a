package dto

import "net/http"

// BaseResponse is the envelope for every non-2xx answer of the API.
type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{Code: code, Message: message, Data: data}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewServiceUnavailableResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusServiceUnavailable, message, nil)
}

func NewInternalErrorResponse() *BaseResponse {
	return NewBaseResponse(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), nil)
}

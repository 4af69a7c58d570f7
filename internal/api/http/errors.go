package http

import (
	"net/http"

	"toolrent-backend/internal/domain"
)

var statusByKind = map[domain.ErrorKind]int{
	domain.KindNotFound:               http.StatusNotFound,
	domain.KindInvalidInput:           http.StatusBadRequest,
	domain.KindConflict:               http.StatusConflict,
	domain.KindForbidden:              http.StatusForbidden,
	domain.KindInvalidStateTransition: http.StatusUnprocessableEntity,
	domain.KindInsufficientBalance:    http.StatusUnprocessableEntity,
	domain.KindInvalidPayout:          http.StatusBadRequest,
}

// StatusFor maps an engine error onto an HTTP status code.
func StatusFor(err error) int {
	if code, ok := statusByKind[domain.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusOf 把领域错误映射为 HTTP 状态码；非领域错误一律 500。
func statusOf(err error) (int, string) {
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
	switch de.Code {
	case core.ErrorCodeUserNotFound, core.ErrorCodeProductNotFound, core.ErrorCodeNotFound:
		return http.StatusNotFound, de.Code
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest, de.Code
	case core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, de.Code
	default:
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if de := core.GetDomainError(err); de != nil && status != http.StatusInternalServerError {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}

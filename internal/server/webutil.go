package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; reference images dominate.
const maxBodyBytes = 16 << 20

// apiError is a handler failure with its HTTP status.
type apiError struct {
	Status int
	Msg    string
	Detail string
	Err    error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *apiError) Unwrap() error { return e.Err }

func newError(status int, msg, detail string) *apiError {
	return &apiError{Status: status, Msg: msg, Detail: detail}
}

func wrapError(status int, err error, msg string) *apiError {
	return &apiError{Status: status, Msg: msg, Detail: err.Error(), Err: err}
}

// handle adapts an error-returning handler.
func (s *Server) handle(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var apiErr *apiError
		if !errors.As(err, &apiErr) {
			apiErr = wrapError(http.StatusInternalServerError, err, "Internal error")
		}
		if apiErr.Status >= http.StatusInternalServerError {
			s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		} else {
			s.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
		}
		writeError(w, s.log, apiErr.Status, apiErr.Msg, apiErr.Detail)
	}
}

func readJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, data any) {
	res, err := json.Marshal(data)
	if err != nil {
		writeError(w, log, http.StatusInternalServerError, "Internal error", errors.Wrap(err, "failed to marshal").Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeResult(w, log, res)
}

func writeError(w http.ResponseWriter, log *zap.Logger, status int, msg, detail string) {
	type jError struct {
		Error  string `json:"error"`
		Detail string `json:"detail,omitempty"`
	}
	data, err := json.Marshal(&jError{Error: msg, Detail: detail})
	if err != nil {
		log.Error("marshaling error response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeResult(w, log, data)
}

func writeFileHeaders(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func writeFile(w http.ResponseWriter, log *zap.Logger, data []byte, contentType, name string) {
	writeFileHeaders(w, contentType, name)
	writeResult(w, log, data)
}

func writeResult(w http.ResponseWriter, log *zap.Logger, data []byte) {
	if _, err := w.Write(data); err != nil {
		log.Warn("writing response", zap.Error(err))
	}
}

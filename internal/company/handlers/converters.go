package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	e "github.com/gartstein/companies/internal/company/errors"
	"github.com/gartstein/companies/internal/company/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Timestamp  string `json:"timestamp"`
	Details    any    `json:"details,omitempty"`
}

// parseID reads a positive integer company id from the path parameters.
func parseID(params map[string]string) (int64, error) {
	raw := params["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &e.Error{
			Kind:    e.KindBadRequest,
			Message: fmt.Sprintf("invalid company ID %q", raw),
		}
	}
	return id, nil
}

// pageRequestFromQuery reads page, limit and searchTerm. Values that are not
// positive integers are left zero so the service applies its defaults.
func pageRequestFromQuery(q url.Values) models.PageRequest {
	return models.PageRequest{
		Page:       positiveInt(q.Get("page")),
		Limit:      positiveInt(q.Get("limit")),
		SearchTerm: q.Get("searchTerm"),
	}
}

func positiveInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &e.Error{
			Kind:    e.KindBadRequest,
			Message: "request body must be a JSON object",
			Detail:  err.Error(),
			Err:     err,
		}
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err onto the HTTP status of its kind. Internal failures are
// logged; their cause never reaches the response.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	resp := errorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
		Path:       r.URL.RequestURI(),
		Method:     r.Method,
		Timestamp:  nowRFC3339(),
	}

	var validation *e.ValidationError
	var classified *e.Error
	switch {
	case errors.As(err, &validation):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = "validation failed"
		resp.Details = validation.Fields
	case errors.As(err, &classified):
		resp.StatusCode = classified.Kind.HTTPStatus()
		resp.Message = classified.Message
		if classified.Kind != e.KindInternal && classified.Detail != "" {
			resp.Details = classified.Detail
		}
	case errors.Is(err, e.ErrNotFound):
		resp.StatusCode = http.StatusNotFound
		resp.Message = "not found"
	case errors.Is(err, e.ErrConflict):
		resp.StatusCode = http.StatusConflict
		resp.Message = "conflict"
	case errors.Is(err, e.ErrInvalidInput):
		resp.StatusCode = http.StatusBadRequest
		resp.Message = "invalid input"
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		logger.Error("Internal server error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	}
	writeJSON(w, resp.StatusCode, resp)
}

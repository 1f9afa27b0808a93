package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// RespondJSON writes a JSON response
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Int("status", status).Msg("Failed to encode response")
		}
	}
}

// RespondError writes an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondErrorWithCode writes an error response with an error code
func RespondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// RespondValidationError writes a validation error response
func RespondValidationError(w http.ResponseWriter, details any) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation error",
		Code:    "VALIDATION_ERROR",
		Details: details,
	})
}

func RespondSuccess(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func RespondCreated(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondPaginated writes a paginated response
func RespondPaginated(w http.ResponseWriter, data any, total int64, page, pageSize int) {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	RespondJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// DecodeJSON decodes a JSON request body, rejecting unknown fields
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// DecodeOptionalJSON is DecodeJSON for bodies that may be empty, including
// chunked requests with no content. An empty body leaves v untouched.
func DecodeOptionalJSON(r *http.Request, v any) error {
	if err := DecodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// GetQueryInt extracts an integer query parameter. A missing parameter yields
// defaultValue; a malformed one is reported as !ok.
func GetQueryInt(r *http.Request, key string, defaultValue int) (int, bool) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue, true
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return intVal, true
}

// ParseInt64Param parses a numeric path parameter such as an emoji or leader id
func ParseInt64Param(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

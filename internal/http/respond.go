package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if err := writeJSON(w, status, payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Error: message,
		Code:  code,
	})
}

// respondInternal logs err against the request and hides it from the client.
func (s *Server) respondInternal(w http.ResponseWriter, r *http.Request, err error, message string) {
	hlog.FromRequest(r).Error().Err(err).Msg(message)
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// errorCode maps domain errors to the client-facing code and status. ok is
// false for errors that are not part of the domain taxonomy.
func errorCode(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound):
		return http.StatusNotFound, "RECIPE_NOT_FOUND", true
	case errors.Is(err, domain.ErrRatingNotFound):
		return http.StatusNotFound, "RATING_NOT_FOUND", true
	case errors.Is(err, domain.ErrDuplicateRating):
		return http.StatusBadRequest, "DUPLICATE_RATING", true
	case errors.Is(err, domain.ErrInvalidRatingValue):
		return http.StatusBadRequest, "INVALID_RATING", true
	case errors.Is(err, domain.ErrInvalidUserID):
		return http.StatusBadRequest, "INVALID_USER_ID", true
	case errors.Is(err, domain.ErrInvalidRecipe):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", true
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", false
	}
}

func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, code, ok := errorCode(err)
	if !ok {
		s.respondInternal(w, r, err, message)
		return
	}
	s.respondError(w, status, code, err.Error())
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token != "" && token == s.cfg.AuthToken
}

func (s *Server) requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if s.verifyBearer(r.Header.Get("Authorization")) {
		return true
	}
	s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
	return false
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"medifinder/m/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads the body into dest and checks its validate tags.
func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Wrap(apperr.Validation, err, decodeMessage(err))
	}
	if err := validate.Struct(dest); err != nil {
		return apperr.Wrap(apperr.Validation, err, validationMessage(err))
	}
	return nil
}

// decodeMessage names the offending field by its JSON path and never
// echoes decoder internals.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr.Message
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return typeErr.Field + " has the wrong type"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	}
	return "Request body must be valid JSON"
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Request body is invalid"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return field + " is invalid"
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, status int, label, message string) {
	respondJSON(w, status, errorResponse{Error: label, Message: message})
}

var kindStatus = map[apperr.Kind]struct {
	status int
	label  string
}{
	apperr.Validation:     {http.StatusBadRequest, "Validation error"},
	apperr.Authentication: {http.StatusUnauthorized, "Authentication failed"},
	apperr.Authorization:  {http.StatusForbidden, "Forbidden"},
	apperr.NotFound:       {http.StatusNotFound, "Not found"},
	apperr.Conflict:       {http.StatusConflict, "Conflict"},
	apperr.Unexpected:     {http.StatusInternalServerError, "Internal server error"},
}

// respondFailure is the only place a failure kind becomes a status code.
// Unexpected failures are logged and answered without their detail.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	m := kindStatus[kind]
	if kind == apperr.Unexpected {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	respondError(w, m.status, m.label, apperr.MessageOf(err, "Something went wrong, please try again"))
}

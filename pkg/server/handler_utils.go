package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/upliftai/uplift/internal"
	"github.com/upliftai/uplift/pkg/models"
)

var log = internal.GetLogger()

var validate = validator.New()

const OKResponse = "OK"

// APIError represents an error response body.
type APIError struct {
	Message string `json:"message"`
}

// extractQueryStringValueToInt extracts a query string value and converts it to an int
// if it is not empty. If the value is empty, it returns 0.
func extractQueryStringValueToInt[T ~int | int32 | int64](
	r *http.Request,
	param string,
) (T, error) {
	p := r.URL.Query().Get(param)
	var pInt T
	if p != "" {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, err
		}
		return T(v), nil
	}
	return pInt, nil
}

// encodeJSON encodes data into JSON and writes it to the response writer.
func encodeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// decodeAndValidateJSON decodes a JSON request body into the provided struct
// and runs its validation tags.
func decodeAndValidateJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return models.NewBadRequestError("malformed request body")
	}
	if err := validate.Struct(data); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// renderError renders an error response, mapping the error taxonomy to HTTP
// status codes.
func renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		log.Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Message: err.Error()})
}

// parseUUIDFromURL parses a UUID from a URL parameter. If the UUID is invalid,
// an error is rendered and uuid.Nil is returned.
func parseUUIDFromURL(r *http.Request, w http.ResponseWriter, paramName string) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		renderError(w, models.NewBadRequestError("unable to parse "+paramName))
		return uuid.Nil
	}
	return id
}

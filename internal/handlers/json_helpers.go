package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"osld-portal/internal/service"
	"osld-portal/pkg/validator"
)

// JSONResponse sends a JSON response and ensures slices are never null.
// The frontend expects arrays, so nil slices are encoded as [].
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalized)
}

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return data
		}
		elem := v.Elem()
		result := reflect.New(elem.Type())
		result.Elem().Set(reflect.ValueOf(normalizeSlices(elem.Interface())))
		return result.Interface()

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(result, v)
		for i := 0; i < v.Len(); i++ {
			if nested(v.Index(i).Kind()) {
				result.Index(i).Set(reflect.ValueOf(normalizeSlices(v.Index(i).Interface())))
			}
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == timeType {
			return data
		}
		// Copy first so unexported fields survive, then normalize what we can reach
		result := reflect.New(v.Type()).Elem()
		result.Set(v)
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() || !result.Field(i).CanSet() {
				continue
			}
			if nested(field.Kind()) {
				result.Field(i).Set(reflect.ValueOf(normalizeSlices(field.Interface())))
			}
		}
		return result.Interface()
	}

	return data
}

func nested(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Ptr || k == reflect.Struct
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := JSONResponse(w, payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// validationResponse is the body of a 400 caused by rejected input
type validationResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields"`
}

// respondWithServiceError maps service errors to HTTP status codes. Unknown
// errors are remote or storage failures; their details only go to the log.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, validationResponse{Error: "Validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountInactive):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, ErrMsgPermissionDenied)
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
	case errors.Is(err, service.ErrAppealExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	return true
}

// asValidationError wraps request validation failures so they map to 400
func asValidationError(err error) error {
	var fieldErrs validator.Errors
	if errors.As(err, &fieldErrs) {
		return &service.ValidationError{Fields: fieldErrs}
	}
	return err
}

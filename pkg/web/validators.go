package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// TextTag is the validator tag for strings that PostgreSQL accepts as text.
const TextTag = "pgtext"

// NewValidator returns a validator with TextTag registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(TextTag, func(fl validator.FieldLevel) bool {
		return ValidText(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidText reports whether s is valid UTF-8 free of NUL bytes.
func ValidText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// ParseID extracts the product ID from the request path. Returns the ID and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int32, bool) {
	return ParsePathInt32(w, r, logger, "id")
}

// ParsePathInt32 parses the named path parameter as a 32-bit integer.
// On failure it writes a 400 response and returns false.
func ParsePathInt32(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (int32, bool) {
	value := r.PathValue(key)
	intValue, err := parseInt32(value)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", key, value))
		return 0, false
	}
	return intValue, true
}

// ParseQueryInt32 parses the named, required url parameter as a 32-bit integer.
// On failure it writes a 400 response and returns false.
func ParseQueryInt32(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false // Return false if the parameter is not present
	}
	intValue, err := parseInt32(value)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return intValue, true
}

func parseInt32(value string) (int32, error) {
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(intValue), nil
}

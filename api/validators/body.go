package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// MaxBodyBytes caps JSON request bodies. A 1000-skid batch fits comfortably.
const MaxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSONBody decodes exactly one JSON value into dest and runs its
// validate tags. Unknown fields, trailing data and oversized bodies are
// rejected as VALIDATION errors.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer io.Copy(io.Discard, body)

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return bodyError(err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must contain a single JSON object")
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is empty")
	case errors.As(err, &tooLarge):
		return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
			WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldPath(fieldErr)] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath drops the top-level struct name so batch rows read "skids[3].width".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid uuid"
	}
	return "is invalid"
}

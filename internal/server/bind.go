package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

const maxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator, reporting fields by their
// json names.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		validate = v
	})
	return validate
}

// BindError is a request body that could not be decoded or failed
// validation. Fields holds one message per invalid field.
type BindError struct {
	Msg    string
	Fields []string
}

func (e *BindError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Fields, "; ")
}

// decodeJSON reads a JSON body into T and validates it.
func decodeJSON[T any](r *http.Request) (T, error) {
	var out T
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close() //nolint:errcheck

	if err := json.NewDecoder(body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, &BindError{Msg: "empty body"}
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return out, &BindError{Msg: "body too large"}
		}
		return out, &BindError{Msg: "invalid JSON body"}
	}

	if err := validatorInstance().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return out, eris.Wrap(err, "server: validate body")
		}
		be := &BindError{Msg: "validation failed"}
		for _, fe := range verrs {
			be.Fields = append(be.Fields, fieldMessage(fe))
		}
		return out, be
	}
	return out, nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	if ns := fe.Namespace(); strings.Count(ns, ".") > 1 {
		// Nested fields keep their path below the root type, e.g. history[0].role.
		field = ns[strings.Index(ns, ".")+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

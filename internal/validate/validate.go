package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		if fe.Param != "" {
			parts[i] = fe.Field + " failed on " + fe.Tag + "=" + fe.Param
		} else {
			parts[i] = fe.Field + " failed on " + fe.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// Struct runs the `validate` tags on s.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(Errors, 0, len(ve))
		for _, fe := range ve {
			out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
		return out
	}
	return err
}

// Var validates a single value against a tag string such as "required,email".
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return v
}

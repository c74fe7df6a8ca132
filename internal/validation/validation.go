// Package validation holds the client-side field checks run before a request
// leaves the console. Rules live in `validate` struct tags; failures come
// back as Violations keyed by the JSON field name.
package validation

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field name to a human-readable problem. A non-empty
// Violations is an error.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns v as an error, or nil when there are no violations.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

// messages turns a failed tag and its parameter into what the operator
// reads. Tags missing here fall back to "is invalid".
var messages = map[string]func(param string) string{
	"required": func(string) string { return "required" },
	"nonblank": func(string) string { return "required" },
	"gt": func(p string) string {
		return "must be greater than " + p
	},
	"gte": func(p string) string {
		if p == "0" {
			return "must not be negative"
		}
		return "must be at least " + p
	},
	"finite":   func(string) string { return "must be a number" },
	"datetime": func(string) string { return "must be a date (YYYY-MM-DD)" },
	"contains": func(p string) string {
		if p == "@" {
			return "must be an email address"
		}
		return "must contain " + strconv.Quote(p)
	},
	"digits": func(p string) string { return "must be " + p + " digits" },
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		f, _ := field.Interface().(decimal.Decimal).Float64()
		return f
	}, decimal.Decimal{})

	v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		s := fl.Field().String()
		if err != nil || len(s) != n {
			return false
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return false
			}
		}
		return true
	})
	return v
}

// Register adds a custom tag. It must run before the first check, which in
// practice means from an init function.
func Register(tag, message string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
	messages[tag] = func(string) string { return message }
}

// Struct checks s against its `validate` tags. Field failures come back as
// Violations; anything else means s is not a struct and is returned as is.
func Struct(s any) error {
	return translate(validate.Struct(s), "")
}

// Var checks a single value under the given field name.
func Var(field string, value any, tag string) error {
	return translate(validate.Var(value, tag), field)
}

func translate(err error, field string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	v := Violations{}
	for _, fe := range fieldErrs {
		name := field
		if name == "" {
			name = fieldName(fe)
		}
		if _, seen := v[name]; !seen {
			v[name] = message(fe)
		}
	}
	return v
}

// fieldName drops the top-level struct name, keeping nested paths such as
// "ingredients[1].item_id".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m(fe.Param())
	}
	return "is invalid"
}

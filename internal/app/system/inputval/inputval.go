// Package inputval validates input structs with go-playground/validator
// tags and turns failures into readable messages. Labels come from the
// `label` struct tag, falling back to the field name.
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strings"

	"github.com/dalemusser/admitportal/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	// "email" replaces the built-in rule so single-label domains pass.
	must(v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	}))
	must(v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return IsValidHTTPURL(fl.Field().String())
	}))
	must(v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return IsValidObjectID(fl.Field().String())
	}))
	must(v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return IsValidRole(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // label of the field
	Tag     string // rule that failed
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err returns the result as an error, nil when valid.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return errors.New(r.All())
}

// Validate checks v against its `validate` tags.
func Validate(v any) *Result {
	res := &Result{}
	err := validate.Struct(v)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "email":
		return "A valid email address is required."
	case "httpurl":
		return fmt.Sprintf("%s must be an http or https URL.", fe.Field())
	case "objectid":
		return fmt.Sprintf("%s must be a 24 character hex id.", fe.Field())
	case "role":
		return fmt.Sprintf("%s must be one of %s.", fe.Field(), strings.Join(models.Roles, ", "))
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// IsValidEmail reports whether s is a bare address (no display name) with a
// dot-atom local part and domain.
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	local, domain := s[:at], s[at+1:]
	return dotAtom(local) && dotAtom(domain)
}

func dotAtom(s string) bool {
	return s != "" &&
		!strings.HasPrefix(s, ".") &&
		!strings.HasSuffix(s, ".") &&
		!strings.Contains(s, "..")
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is 24 hex characters.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidRole reports whether s names a known role, ignoring case.
func IsValidRole(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range models.Roles {
		if s == r {
			return true
		}
	}
	return false
}

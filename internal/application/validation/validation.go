// Package validation declares the form rules for organizations, individuals
// and sign-in credentials, and turns rule failures into localized
// field-level messages.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/domain/shared"
	"golang.org/x/text/language"
)

// OrganizationInput is the organization form
type OrganizationInput struct {
	Name  string `json:"name" form:"name" validate:"required" example:"Isow LTDA"`
	Email string `json:"email" form:"email" validate:"required,email" example:"example@isow.com"`
	CNPJ  string `json:"cnpj" form:"cnpj" validate:"required" example:"00.000.000/0000-00"`
}

// IndividualInput is the individual (user) form
type IndividualInput struct {
	Name  string `json:"name" form:"name" validate:"required" example:"Maria Souza"`
	Email string `json:"email" form:"email" validate:"required,email" example:"maria@isow.com"`
	CPF   string `json:"cpf" form:"cpf" validate:"required" example:"000.000.000-00"`
	CNPJ  string `json:"cnpj" form:"cnpj" validate:"required" example:"00.000.000/0000-00"`
}

// SignInInput is the sign-in form
type SignInInput struct {
	Email    string `json:"email" form:"email" validate:"required,email" example:"admin@isow.com"`
	Password string `json:"password" form:"password" validate:"required" example:"secret123"`
}

// Specific messages by <struct>.<field>.<tag>; anything else falls back to
// the per-tag message.
var fieldMessages = map[string]string{
	"OrganizationInput.name.required":  i18n.MsgCompanyNameRequired,
	"OrganizationInput.email.required": i18n.MsgEmailRequired,
	"OrganizationInput.email.email":    i18n.MsgEmailInvalid,
	"OrganizationInput.cnpj.required":  i18n.MsgCNPJRequired,
	"IndividualInput.name.required":    i18n.MsgPersonNameRequired,
	"IndividualInput.email.required":   i18n.MsgEmailRequired,
	"IndividualInput.email.email":      i18n.MsgEmailInvalid,
	"IndividualInput.cpf.required":     i18n.MsgCPFRequired,
	"IndividualInput.cnpj.required":    i18n.MsgCNPJRequired,
	"SignInInput.email.required":       i18n.MsgEmailRequired,
	"SignInInput.email.email":          i18n.MsgEmailInvalid,
	"SignInInput.password.required":    i18n.MsgPasswordRequired,
}

var tagMessages = map[string]string{
	"required": i18n.MsgFieldRequired,
	"email":    i18n.MsgEmailInvalid,
}

// FieldError is one failed rule on one field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of field failures for one form. It matches
// shared.ErrValidation with errors.Is.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, shared.ErrValidation) match
func (e Errors) Is(target error) bool {
	return target == shared.ErrValidation
}

// Map returns the messages keyed by field, first failure wins
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// AsErrors extracts field errors from err
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct trims the string fields of input in place and checks its rules.
// It returns nil or an Errors value with messages in lang.
func Struct(lang language.Tag, input any) error {
	trimStrings(input)

	err := engine().Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: i18n.T(lang, messageKey(fe)),
		})
	}
	return out
}

func messageKey(fe validator.FieldError) string {
	if key, ok := fieldMessages[fe.Namespace()+"."+fe.Tag()]; ok {
		return key
	}
	if key, ok := tagMessages[fe.Tag()]; ok {
		return key
	}
	return i18n.MsgFieldInvalid
}

// trimStrings trims surrounding whitespace from every settable string field
func trimStrings(input any) {
	v := reflect.ValueOf(input)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

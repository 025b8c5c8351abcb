package handler

import (
	"errors"
	"reflect"
	"strings"

	"noteapp-server/internal/domain"
	"noteapp-server/internal/service"

	"github.com/go-playground/validator/v10"
)

// RequestValidator checks decoded request bodies and reports failures keyed
// by their JSON names.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	v.RegisterValidation("notetag", func(fl validator.FieldLevel) bool {
		return domain.Tag(fl.Field().String()).Valid()
	})

	return &RequestValidator{validate: v}
}

// Struct returns nil or a *service.ValidationError.
func (rv *RequestValidator) Struct(req interface{}) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := service.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), messageFor(fe.Tag()))
	}
	return verr
}

func messageFor(tag string) string {
	switch tag {
	case "notblank":
		return service.MsgNotBlank
	case "required":
		return service.MsgNotNull
	case "min":
		return service.MsgMinSize
	case "notetag":
		return service.MsgUnknownTag
	default:
		return service.MsgInvalid
	}
}

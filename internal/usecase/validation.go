package usecase

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/go-playground/validator/v10"
)

// validate потокобезопасен и кэширует разбор тегов структур.
var validate = validator.New()

// validateStruct проверяет теги запроса и превращает ошибки валидатора в ошибки класса e.ErrValidation.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return e.Wrap(fe.Namespace(), e.ErrMissingFields)
		}
		return e.Classify(e.ErrValidation, fmt.Sprintf("invalid field %s: %s", fe.Field(), fe.Tag()))
	}

	return e.Classify(e.ErrValidation, err.Error())
}

package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/pkg/validation"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validation.New()}
}

// Validate satisfies the echo.Validator interface. Failures wrap
// domain.ErrInvalidInput so the error handler renders them as 422.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		if msg, ok := validation.Describe(err); ok {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
		}
		return err
	}
	return nil
}

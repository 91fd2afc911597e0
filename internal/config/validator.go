package config

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	rrerrors "github.com/ebosslab/rrboss/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
			_, err := regexp.Compile(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})
	return validateInst
}

// Validate checks a configuration against its struct tags and converts the
// first violation into a typed validation error.
func Validate(cfg *Config) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return rrerrors.NewValidationError(
				first.Namespace(),
				fmt.Sprintf("failed %q constraint (value %v)", first.Tag(), first.Value()),
				err,
			)
		}
		return err
	}
	return nil
}

package validate

import (
	"fmt"

	"github.com/blxryer/haste-server/internal/utils/storeError"

	"github.com/go-playground/validator/v10"
)

// KeyRule matches the width of the key column.
const KeyRule = "required,max=255"

var validate = validator.New()

func Validate(s any) error {
	err := validate.Struct(s)
	if err != nil {
		return fmt.Errorf("invalid request: %s, %w", err.Error(), storeError.ErrBadRequest)
	}

	return nil
}

func Key(key string) error {
	err := validate.Var(key, KeyRule)
	if err != nil {
		return fmt.Errorf("invalid key %q: %s, %w", key, err.Error(), storeError.ErrBadRequest)
	}

	return nil
}

package auth

import (
	"fmt"
	"strings"

	"roomchat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateName checks a display name carried by a token.
func ValidateName(name string) error {
	if err := validate.Var(strings.TrimSpace(name), "required,max=64"); err != nil {
		return fmt.Errorf("%w: invalid name claim", errors.ErrUnauthenticated)
	}
	return nil
}

package xerrors

import (
	"fmt"
)

// ValidationError reports a malformed argument. It never implies a change of pool state.
type ValidationError struct {
	Argument string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

func Validation(argument, format string, args ...interface{}) error {
	return &ValidationError{
		Argument: argument,
		Reason:   fmt.Sprintf(format, args...),
	}
}

func IsValidation(err error) bool {
	var target *ValidationError

	return As(err, &target)
}

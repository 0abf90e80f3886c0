package absence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientVacationDays = errors.New("insufficient vacation days")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrNotFound                 = errors.New("absence not found")
	ErrInvalidState             = errors.New("invalid state")
)

// ValidationError collects structural field violations as one list instead of
// failing on the first bad field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Add(field string) {
	e.Fields = append(e.Fields, field)
}

func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

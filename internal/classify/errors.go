package classify

import "fmt"

// InvalidInputError is returned for text that cannot be classified: invalid UTF-8, or text
// with no letters or digits at all.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

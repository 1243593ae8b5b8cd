package taxonomy

import "fmt"

// TaxonomyError represents a malformed or inconsistent taxonomy artifact.
// A process must refuse to start when loading fails with this error.
type TaxonomyError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TaxonomyError) Error() string {
	prefix := "invalid taxonomy"
	if e.Path != "" {
		prefix = fmt.Sprintf("invalid taxonomy at %s", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *TaxonomyError) Unwrap() error {
	return e.Cause
}

// NotFoundError is returned when an id is not declared in the registry.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

package importer

import "fmt"

// InvalidAuthorError indicates the configured author does not resolve to
// an existing user in the content store.
type InvalidAuthorError struct {
	ID int64
}

func (e *InvalidAuthorError) Error() string {
	return fmt.Sprintf("invalid author ID: %d", e.ID)
}

// UnknownItemTypeError indicates the destination content type is not
// registered in the content store.
type UnknownItemTypeError struct {
	Name string
}

func (e *UnknownItemTypeError) Error() string {
	return fmt.Sprintf("unknown content type: %s", e.Name)
}

// UnknownTaxonomyError indicates the destination taxonomy is not
// registered in the content store.
type UnknownTaxonomyError struct {
	Name string
}

func (e *UnknownTaxonomyError) Error() string {
	return fmt.Sprintf("unknown taxonomy: %s", e.Name)
}

// InvalidDateError indicates a since-date value that could not be parsed.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %q", e.Value)
}

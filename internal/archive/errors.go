package archive

import "fmt"

// MissingArchiveError indicates the primary archive file does not exist at
// the expected location.
type MissingArchiveError struct {
	Path string
}

func (e *MissingArchiveError) Error() string {
	return fmt.Sprintf("archive file not found: %s", e.Path)
}

// MalformedArchiveError indicates a file could not be decoded. This is
// fatal for the whole run; archives are expected to be complete and intact.
type MalformedArchiveError struct {
	Path string
	Err  error
}

func (e *MalformedArchiveError) Error() string {
	return fmt.Sprintf("unable to decode the contents of %s: %v", e.Path, e.Err)
}

func (e *MalformedArchiveError) Unwrap() error {
	return e.Err
}

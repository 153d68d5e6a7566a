package comments

import "errors"

var (
	ErrEmptyContent = errors.New("comment text is empty")
	ErrInvalidPost  = errors.New("incorrect post ID")
)

// PersistenceError is a backend failure while reading or writing comments.
// Its message is the backend's own message, suitable for display.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

package pkg

import "fmt"

// ErrDBProcedure wraps a failed persistence step with the query or key it was running.
type ErrDBProcedure struct {
	Cause string
	Info  string
	Err   error
}

func (e *ErrDBProcedure) Error() string {
	if e.Info == "" {
		return fmt.Sprintf("%s: %s", e.Cause, e.Err)
	}
	return fmt.Sprintf("%s: %s; info: %s", e.Cause, e.Err, e.Info)
}

func (e *ErrDBProcedure) Unwrap() error {
	return e.Err
}

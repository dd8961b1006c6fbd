// Package cli contains the skb command tree.
package cli

import "fmt"

// ExitError carries a specific process exit code through cobra's error
// return. main unwraps it; any other error exits 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

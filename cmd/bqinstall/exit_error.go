// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeOf returns the status the process should exit with for err: the
// code of an explicit ExitError, else that of the failed external command,
// else 1.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return exitErr.Code.Portable()
	}
	var failure *runner.ExecutionFailure
	if errors.As(err, &failure) && !failure.ExitCode.IsSuccess() {
		return failure.ExitCode.Portable()
	}
	return 1
}

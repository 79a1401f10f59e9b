package core

import (
	"errors"
	"fmt"

	"github.com/auriga-audio/auriga/pkg/aw"
)

// CLI exit codes.
const (
	ExitOK       = 0
	ExitRuntime  = 1
	ExitUsage    = 2
	ExitNotFound = 4
	ExitConflict = 5
)

// CLIError carries a user-visible message and exit code.
type CLIError struct {
	Code int
	Msg  string
	Err  error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// WrapError creates a CLIError with an underlying error.
func WrapError(code int, msg string, err error) *CLIError {
	return &CLIError{Code: code, Msg: msg, Err: err}
}

// ErrorForReplyCode maps protocol error codes to CLI exit codes.
func ErrorForReplyCode(code string, message string) *CLIError {
	switch code {
	case aw.ErrCodeNotFound:
		return &CLIError{Code: ExitNotFound, Msg: message}
	case aw.ErrCodeConflict:
		return &CLIError{Code: ExitConflict, Msg: message}
	case aw.ErrCodeInvalid:
		return &CLIError{Code: ExitUsage, Msg: message}
	default:
		return &CLIError{Code: ExitRuntime, Msg: message}
	}
}

// ExitCode returns the CLI exit code from error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	var replyErr *aw.ReplyError
	if errors.As(err, &replyErr) {
		return ErrorForReplyCode(replyErr.Code, replyErr.Message).Code
	}
	return ExitRuntime
}

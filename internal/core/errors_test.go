package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/auriga-audio/auriga/pkg/aw"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("plain"), ExitRuntime},
		{&CLIError{Code: ExitUsage, Msg: "bad flag"}, ExitUsage},
		{fmt.Errorf("wrapped: %w", &CLIError{Code: ExitConflict, Msg: "busy"}), ExitConflict},
		{&aw.ReplyError{Code: aw.ErrCodeNotFound, Message: "missing"}, ExitNotFound},
		{fmt.Errorf("zone zone-1: %w", &aw.ReplyError{Code: aw.ErrCodeInvalid, Message: "bad"}), ExitUsage},
	}
	for i, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("case %d: expected %d, got %d", i, tc.want, got)
		}
	}
}

func TestErrorForReplyCode(t *testing.T) {
	if err := ErrorForReplyCode(aw.ErrCodeConflict, "busy"); err.Code != ExitConflict {
		t.Fatalf("expected conflict exit, got %d", err.Code)
	}
	if err := ErrorForReplyCode(aw.ErrCodeInternal, "boom"); err.Code != ExitRuntime {
		t.Fatalf("expected runtime exit, got %d", err.Code)
	}
}

func TestCLIErrorMessage(t *testing.T) {
	err := WrapError(ExitRuntime, "list zones", errors.New("broker down"))
	if err.Error() != "list zones: broker down" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

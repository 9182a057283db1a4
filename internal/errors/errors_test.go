package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeAspectNotFound, "aspect missing")
	target := New(CodeAspectNotFound, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeNotFound, "aspect missing")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeChatEntryFailed, "create entry", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "create entry" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestHandleErrorTranslatesDomainError(t *testing.T) {
	err := WithMetadata(CodeAspectBoxNotFound, "toggle miss", map[string]string{
		"AspectID": "asp-1",
		"BoxID":    "box-2",
	})

	handled := HandleError(err, "")
	st, ok := status.FromError(handled)
	if !ok {
		t.Fatalf("expected grpc status, got %v", handled)
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("code = %v, want NotFound", st.Code())
	}
	if st.Message() != "toggle miss" {
		t.Fatalf("message = %q", st.Message())
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	handled := HandleError(fmt.Errorf("boom"), "en-US")
	st, ok := status.FromError(handled)
	if !ok {
		t.Fatalf("expected grpc status, got %v", handled)
	}
	if st.Code() != codes.Internal {
		t.Fatalf("code = %v, want Internal", st.Code())
	}
}

func TestHandleErrorNil(t *testing.T) {
	if HandleError(nil, "en-US") != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(New(CodeRollFormulaInvalid, "bad modifier")) != CodeRollFormulaInvalid {
		t.Fatal("expected roll formula code")
	}
	if GetCode(fmt.Errorf("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
	wrapped := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatal("expected wrapped domain code to be found")
	}
}

func TestUserMessage(t *testing.T) {
	err := WithMetadata(CodeAspectNotFound, "toggle miss", map[string]string{"AspectID": "asp-1"})
	code, message := UserMessage(err, "en-US")
	if code != CodeAspectNotFound {
		t.Fatalf("code = %s, want %s", code, CodeAspectNotFound)
	}
	if message != "Aspect asp-1 is not tracked at this table" {
		t.Fatalf("message = %q", message)
	}

	code, message = UserMessage(fmt.Errorf("boom"), "")
	if code != CodeUnknown {
		t.Fatalf("code = %s, want %s", code, CodeUnknown)
	}
	if message == "" || message == string(CodeUnknown) {
		t.Fatalf("expected catalog message for unknown code, got %q", message)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tcs := []struct {
		code Code
		want codes.Code
	}{
		{CodeLadderLabelMissing, codes.FailedPrecondition},
		{CodeRollFormulaInvalid, codes.InvalidArgument},
		{CodeAspectBoxNotFound, codes.NotFound},
		{CodeChatEntryFailed, codes.Unavailable},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tcs {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s GRPCCode = %v, want %v", tc.code, got, tc.want)
		}
	}
}

package server

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/fatexengine/fatex/internal/errors"
)

func capturedError(t *testing.T, srv *Server, err error) wsError {
	t.Helper()
	peer, buf := newCapturedPeer()
	srv.writeDomainError(peer, "req-1", err)

	var frame wsFrame
	if decodeErr := json.NewDecoder(buf).Decode(&frame); decodeErr != nil {
		t.Fatalf("decode frame: %v", decodeErr)
	}
	if frame.Type != "table.error" {
		t.Fatalf("frame type = %s, want table.error", frame.Type)
	}
	var envelope wsErrorEnvelope
	if decodeErr := json.Unmarshal(frame.Payload, &envelope); decodeErr != nil {
		t.Fatalf("decode error payload: %v", decodeErr)
	}
	return envelope.Error
}

func TestWriteDomainErrorMarksUnavailableRetryable(t *testing.T) {
	srv := &Server{locale: "en-US"}

	wsErr := capturedError(t, srv, apperrors.Wrap(
		apperrors.CodeChatEntryFailed, "update aspect entry", errors.New("disk full"),
	))
	if wsErr.Code != "CHAT_ENTRY_FAILED" {
		t.Fatalf("code = %s, want CHAT_ENTRY_FAILED", wsErr.Code)
	}
	if !wsErr.Retryable {
		t.Fatal("chat entry failures should be retryable")
	}
	if wsErr.Message != "The chat log rejected the entry" {
		t.Fatalf("message = %q", wsErr.Message)
	}
}

func TestWriteDomainErrorLocalizesMessage(t *testing.T) {
	srv := &Server{locale: "de"}

	wsErr := capturedError(t, srv, apperrors.New(
		apperrors.CodeChatEntryFailed, "update aspect entry",
	))
	if wsErr.Message != "Das Chatprotokoll hat den Eintrag abgelehnt" {
		t.Fatalf("message = %q", wsErr.Message)
	}
}

func TestWriteDomainErrorValidationNotRetryable(t *testing.T) {
	srv := &Server{locale: "en-US"}

	wsErr := capturedError(t, srv, apperrors.WithMetadata(
		apperrors.CodeRollFormulaInvalid, "invalid roll modifier 2d6",
		map[string]string{"Expression": "2d6"},
	))
	if wsErr.Code != "ROLL_FORMULA_INVALID" {
		t.Fatalf("code = %s, want ROLL_FORMULA_INVALID", wsErr.Code)
	}
	if wsErr.Retryable {
		t.Fatal("validation failures must not be retryable")
	}
}

func TestWriteDomainErrorUnknownError(t *testing.T) {
	srv := &Server{locale: "en-US"}

	wsErr := capturedError(t, srv, errors.New("boom"))
	if wsErr.Code != string(apperrors.CodeUnknown) {
		t.Fatalf("code = %s, want %s", wsErr.Code, apperrors.CodeUnknown)
	}
	if wsErr.Retryable {
		t.Fatal("unknown failures must not be retryable")
	}
	if wsErr.Message == "" || wsErr.Message == "boom" {
		t.Fatalf("message = %q, want the catalog text, not the internal error", wsErr.Message)
	}
}

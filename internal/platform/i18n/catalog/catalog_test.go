package catalog

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasBaseLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("de") {
		t.Fatal("expected de locale")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	bundle := Default()

	value, ok := bundle.Message("de", "chat.roll.title")
	if !ok || value != "würfelt" {
		t.Fatalf("de chat.roll.title = %q ok=%v", value, ok)
	}

	// pt-BR has no catalog; the base locale satisfies the lookup.
	value, ok = bundle.Message("pt-BR", "chat.roll.title")
	if !ok || value != "rolls" {
		t.Fatalf("pt-BR chat.roll.title = %q ok=%v", value, ok)
	}
}

func TestLadderNamespaceIsComplete(t *testing.T) {
	bundle := Default()
	for _, locale := range bundle.Locales() {
		messages := bundle.NamespaceMessages(locale, "ladder")
		if len(messages) != 13 {
			t.Fatalf("locale %s ladder namespace has %d entries, want 13", locale, len(messages))
		}
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/ladder.yaml": &fstest.MapFile{
			Data: []byte("locale: \"de\"\nnamespace: \"ladder\"\nmessages:\n  \"ladder.+0\": \"Mediocre\"\n"),
		},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRejectsDuplicateKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en-US/ladder.yaml": &fstest.MapFile{
			Data: []byte("locale: \"en-US\"\nnamespace: \"ladder\"\nmessages:\n  \"ladder.+0\": \"Mediocre\"\n"),
		},
		"locales/en-US/chat.yaml": &fstest.MapFile{
			Data: []byte("locale: \"en-US\"\nnamespace: \"chat\"\nmessages:\n  \"ladder.+0\": \"Mediocre\"\n"),
		},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestNamespaceMessagesWithFallback(t *testing.T) {
	bundle := Default()

	locale, messages := bundle.NamespaceMessagesWithFallback("fr", "errors")
	if locale != BaseLocale {
		t.Fatalf("fallback locale = %q, want %q", locale, BaseLocale)
	}
	if len(messages) == 0 {
		t.Fatal("expected base errors namespace")
	}

	locale, messages = bundle.NamespaceMessagesWithFallback("de", "errors")
	if locale != "de" {
		t.Fatalf("locale = %q, want de", locale)
	}
	if messages["NOT_FOUND"] != "Die angeforderte Ressource wurde nicht gefunden" {
		t.Fatalf("unexpected de NOT_FOUND message %q", messages["NOT_FOUND"])
	}
}

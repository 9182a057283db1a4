// Package host declares the capability contracts this engine consumes from
// its virtual tabletop host. The engine never talks to a concrete transport,
// template system, or UI directly; it is handed implementations of these
// interfaces at construction time.
package host

import "context"

// Template references understood by a host renderer.
const (
	TemplateRollCheck = "chat/roll-check"
	TemplateAspect    = "chat/aspect"
)

// Entry is one chat transcript entry payload.
//
// Content is opaque to the engine: it is whatever the renderer produced.
// Data retains the render payload so a host can re-render the entry later
// without the engine resupplying it.
type Entry struct {
	Kind    string
	Speaker string
	Content string
	Data    any
}

// Transcript is the host's append-only chat log.
//
// CreateEntry returns the handle of the new entry. UpdateEntry replaces the
// content of an existing entry in place; it must never append.
type Transcript interface {
	CreateEntry(ctx context.Context, entry Entry) (string, error)
	UpdateEntry(ctx context.Context, id string, entry Entry) error
}

// Renderer turns a template reference and payload into entry content.
type Renderer interface {
	Render(ctx context.Context, templateRef string, data any) (string, error)
}

// Animator plays the host's dice-rolling animation. Implementations must not
// block on animation completion; the engine fires and forgets.
type Animator interface {
	ShowRoll(ctx context.Context, dice []int)
}

// Binder attaches a handler to a rendered UI control. Binding is best-effort:
// a selector that matches nothing is not an error, Bind simply reports false.
// Handlers may be invoked long after binding, once per control event.
type Binder interface {
	Bind(selector, event string, handler func(context.Context)) bool
}

package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fatexengine/fatex/internal/aspect/domain"
	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/host"
)

const (
	// bindDelay gives the host time to mount a freshly created chat entry
	// before the first listener attachment attempt.
	defaultBindDelay = 100 * time.Millisecond
	// rebindDelay follows each in-place entry update, which destroys the
	// previously bound listeners.
	defaultRebindDelay = 300 * time.Millisecond
	// rebindInterval paces the safety-net loop that re-attaches listeners
	// for every tracked aspect, catching renders the deferred binds missed.
	defaultRebindInterval = time.Second
)

// ChatPayload is the render payload for an aspect's chat entry.
type ChatPayload struct {
	Aspect domain.Aspect
}

// BoxSelector returns the UI selector for a box's checkbox control.
func BoxSelector(boxID string) string {
	return fmt.Sprintf("input[data-binding='%s']", boxID)
}

// Publisher posts scene aspects to the chat transcript and keeps the posted
// entries synchronized with the tracker store.
//
// Toggling a box never creates a second chat entry: the original entry is
// updated in place so transcript order is preserved. Because an update
// replaces the entry's rendered content, box listeners are re-attached
// afterwards; attachment is best-effort and backed by an interval loop that
// retries for every tracked aspect until the publisher's context ends.
type Publisher struct {
	store      *Store
	transcript host.Transcript
	renderer   host.Renderer
	binder     host.Binder

	bindDelay      time.Duration
	rebindDelay    time.Duration
	rebindInterval time.Duration

	mu      sync.Mutex
	entries map[string]string
}

// NewPublisher creates a publisher over the given store and host capabilities.
func NewPublisher(store *Store, transcript host.Transcript, renderer host.Renderer, binder host.Binder) *Publisher {
	return &Publisher{
		store:          store,
		transcript:     transcript,
		renderer:       renderer,
		binder:         binder,
		bindDelay:      defaultBindDelay,
		rebindDelay:    defaultRebindDelay,
		rebindInterval: defaultRebindInterval,
		entries:        make(map[string]string),
	}
}

// Publish tracks a new aspect and posts it as a chat entry.
//
// Exactly one entry is created per published aspect. Listener attachment for
// the boxes is scheduled after a short defer so the host can finish
// mounting the entry.
func (p *Publisher) Publish(ctx context.Context, input domain.CreateAspectInput, numBoxes int) (domain.Aspect, error) {
	aspect, err := p.store.Create(input, numBoxes)
	if err != nil {
		return domain.Aspect{}, err
	}

	content, err := p.render(ctx, aspect)
	if err != nil {
		return domain.Aspect{}, err
	}

	entryID, err := p.transcript.CreateEntry(ctx, host.Entry{
		Kind:    "aspect",
		Content: content,
		Data:    ChatPayload{Aspect: aspect},
	})
	if err != nil {
		return domain.Aspect{}, apperrors.Wrap(apperrors.CodeChatEntryFailed, "create aspect entry", err)
	}

	p.mu.Lock()
	p.entries[aspect.ID] = entryID
	p.mu.Unlock()

	p.scheduleBind(ctx, aspect.ID, p.bindDelay)
	return aspect, nil
}

// Toggle flips a box, re-renders the aspect from the store's current state,
// and updates the existing chat entry in place.
//
// When the update fails the store mutation still holds; the published entry
// stays visibly stale until the next successful toggle.
func (p *Publisher) Toggle(ctx context.Context, aspectID, boxID string) (domain.Aspect, error) {
	updated, err := p.store.Toggle(aspectID, boxID)
	if err != nil {
		return domain.Aspect{}, err
	}

	entryID, ok := p.entry(aspectID)
	if !ok {
		return domain.Aspect{}, apperrors.WithMetadata(
			apperrors.CodeAspectNotFound,
			"aspect has no published entry",
			map[string]string{"AspectID": aspectID},
		)
	}

	content, err := p.render(ctx, updated)
	if err != nil {
		return domain.Aspect{}, err
	}

	if err := p.transcript.UpdateEntry(ctx, entryID, host.Entry{
		Kind:    "aspect",
		Content: content,
		Data:    ChatPayload{Aspect: updated},
	}); err != nil {
		return domain.Aspect{}, apperrors.Wrap(apperrors.CodeChatEntryFailed, "update aspect entry", err)
	}

	p.scheduleBind(ctx, aspectID, p.rebindDelay)
	return updated, nil
}

// Run drives the safety-net re-attachment loop until ctx is cancelled.
//
// Every interval it re-binds the box controls of all published aspects. A
// control that is not present is simply skipped; the next tick tries again.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.rebindInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, aspectID := range p.publishedIDs() {
				p.bindBoxes(ctx, aspectID)
			}
		}
	}
}

// render always reads box state through the aspect passed in, which callers
// obtain fresh from the store, never from a captured copy.
func (p *Publisher) render(ctx context.Context, aspect domain.Aspect) (string, error) {
	content, err := p.renderer.Render(ctx, host.TemplateAspect, ChatPayload{Aspect: aspect})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeChatEntryFailed, "render aspect entry", err)
	}
	return content, nil
}

func (p *Publisher) entry(aspectID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entryID, ok := p.entries[aspectID]
	return entryID, ok
}

func (p *Publisher) publishedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

func (p *Publisher) scheduleBind(ctx context.Context, aspectID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		p.bindBoxes(ctx, aspectID)
	})
}

func (p *Publisher) bindBoxes(ctx context.Context, aspectID string) {
	if p.binder == nil {
		return
	}

	aspect, err := p.store.Get(aspectID)
	if err != nil {
		// The entry map can outlive a manually removed aspect; nothing to bind.
		return
	}

	for _, box := range aspect.Boxes {
		boxID := box.ID
		p.binder.Bind(BoxSelector(boxID), "change", func(handlerCtx context.Context) {
			if _, err := p.Toggle(handlerCtx, aspectID, boxID); err != nil {
				log.Printf("aspect: toggle box %s: %v", boxID, err)
			}
		})
	}
}
